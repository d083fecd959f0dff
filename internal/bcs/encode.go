// Package bcs implements the slice of Binary Canonical Serialization that
// TemplateBuilder needs: little-endian scalars, ULEB128 length-prefixed
// sequences, 1-byte enum-variant tags, and Option encoding. No library in
// this module's reference corpus implements Sui's BCS (it is a
// Sui-specific format), so this is purpose-built against spec.md §4.2/§6
// rather than adapted from a dependency — see DESIGN.md's stdlib
// justification for this package.
package bcs

import "encoding/binary"

// Encoder accumulates a BCS byte buffer and tracks the offset at which
// each field is written, so a TemplateBuilder can record nonce_offset by
// construction instead of scanning the finished buffer for a sentinel.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with capacity pre-reserved.
func NewEncoder(capacityHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacityHint)}
}

// Offset returns the current length of the buffer — the offset the next
// write will land at.
func (e *Encoder) Offset() int {
	return len(e.buf)
}

// Bytes returns the accumulated buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// WriteU8 writes a single byte.
func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteU16 writes a little-endian uint16.
func (e *Encoder) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// WriteU64 writes a little-endian uint64. The nonce field written by each
// TemplateBuilder is always produced by this call, so its offset is
// exactly Offset() immediately before calling it.
func (e *Encoder) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// WriteULEB128 writes an unsigned LEB128-encoded integer, used for BCS
// sequence length prefixes.
func (e *Encoder) WriteULEB128(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			e.buf = append(e.buf, b|0x80)
			continue
		}
		e.buf = append(e.buf, b)
		return
	}
}

// WriteFixedBytes writes raw bytes with no length prefix (for fixed-size
// fields like 32-byte addresses and digests).
func (e *Encoder) WriteFixedBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteBytes writes a BCS byte vector: a ULEB128 length prefix followed
// by the raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteULEB128(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteVector writes a BCS sequence length prefix only; callers then
// invoke per-element write calls for each of the count elements (used
// when an element isn't itself a byte slice, e.g. a vector of vectors).
func (e *Encoder) WriteVector(count int) {
	e.WriteULEB128(uint64(count))
}

// WriteVariant writes a single-byte enum discriminant.
func (e *Encoder) WriteVariant(tag byte) {
	e.buf = append(e.buf, tag)
}

// WriteBool writes a BCS bool (single byte, 0 or 1).
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// WriteOptionNone writes BCS Option::None (a single 0x00 byte).
func (e *Encoder) WriteOptionNone() {
	e.buf = append(e.buf, 0x00)
}

// WriteOptionSomeTag writes the BCS Option::Some discriminant (0x01); the
// caller follows with the wrapped value's own encoding.
func (e *Encoder) WriteOptionSomeTag() {
	e.buf = append(e.buf, 0x01)
}
