// Package hashcore provides the two hash primitives the mining engine
// needs — Blake2b-256 and SHA3-256 — as both incremental contexts and
// allocation-free one-shot helpers fused for the exact inputs the engine
// computes millions of times per second, per spec.md §4.1.
package hashcore

import (
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Size is the output length of both hash functions used in this system.
const Size = 32

// NewBlake2b256 returns a fresh incremental Blake2b-256 (32-byte output,
// no key, no salt, no personalisation) context.
func NewBlake2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256(nil) only errors for an out-of-range key size;
		// a nil key is always valid, so this is unreachable.
		panic(err)
	}
	return h
}

// NewSha3_256 returns a fresh incremental SHA3-256 context (Keccak-f[1600],
// 24 rounds, domain separation byte 0x06, rate 136 bytes).
func NewSha3_256() hash.Hash {
	return sha3.New256()
}

// Blake2b256Concat hashes the concatenation of parts with Blake2b-256 and
// writes the 32-byte digest into dst, reusing the given hasher to avoid
// per-call allocation. Callers in the mining hot loop hold one hasher per
// worker and call this once per nonce.
func Blake2b256Concat(h hash.Hash, dst *[32]byte, parts ...[]byte) {
	h.Reset()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(dst[:0])
	copy(dst[:], sum)
}

// Sha3_256Concat hashes the concatenation of parts with SHA3-256 and
// writes the 32-byte digest into dst, reusing the given hasher.
func Sha3_256Concat(h hash.Hash, dst *[32]byte, parts ...[]byte) {
	h.Reset()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(dst[:0])
	copy(dst[:], sum)
}

// Blake2b256Sum is a one-shot helper for callers outside the hot loop
// (tests, derive.Derive) that don't want to manage a hasher
// instance themselves.
func Blake2b256Sum(parts ...[]byte) [32]byte {
	h := NewBlake2b256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Sha3_256Sum is the SHA3-256 equivalent of Blake2b256Sum.
func Sha3_256Sum(parts ...[]byte) [32]byte {
	h := NewSha3_256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
