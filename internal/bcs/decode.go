package bcs

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
)

// Decoder reads a BCS byte buffer sequentially. It is used only by the
// builder self-check (round-tripping a sentinel written at nonce_offset)
// and by the structural parse of a user-supplied raw transaction in
// GenericCall's BuildFromBase64 path — never on the mining hot path.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for sequential reading from the start.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Pos returns the current read offset.
func (d *Decoder) Pos() int {
	return d.pos
}

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return errors.Wrapf(errs.ErrSerialization, "need %d bytes at offset %d, have %d", n, d.pos, len(d.buf))
	}
	return nil
}

// ReadU8 reads a single byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

// ReadU64 reads a little-endian uint64.
func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

// ReadULEB128 reads an unsigned LEB128-encoded integer.
func (d *Decoder) ReadULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if err := d.need(1); err != nil {
			return 0, err
		}
		b := d.buf[d.pos]
		d.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, errors.Wrap(errs.ErrSerialization, "uleb128 overflow")
		}
	}
}

// ReadFixedBytes reads exactly n raw bytes (no length prefix).
func (d *Decoder) ReadFixedBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+n])
	d.pos += n
	return out, nil
}

// ReadBytes reads a BCS byte vector (ULEB128 length prefix + raw bytes).
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadULEB128()
	if err != nil {
		return nil, err
	}
	return d.ReadFixedBytes(int(n))
}

// Skip advances the read position by n bytes without interpreting them.
func (d *Decoder) Skip(n int) error {
	if err := d.need(n); err != nil {
		return err
	}
	d.pos += n
	return nil
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}
