// Package derive implements DerivationSpec from spec.md §3/§6: the rule
// that turns a 32-byte transaction digest and an object index into a
// 32-byte candidate object ID. The algorithm is fixed per job when a
// Deriver is built; Deriver.Derive still switches on that fixed algorithm
// on every call, so the branch is taken once per derived candidate.
package derive

import (
	"encoding/binary"
	"hash"

	"github.com/suivanity/miner/internal/hashcore"
)

// Algorithm is a sealed tag for the two object-ID derivation schemes.
type Algorithm int

const (
	// Sha3_256 derives the published package's own ID: only valid at
	// index 0, per the Sui protocol rule in spec.md §4.2.1.
	Sha3_256 Algorithm = iota
	// Blake2b_256WithPrefix derives every other created object's ID,
	// domain-separated with the 0xF1 byte.
	Blake2b_256WithPrefix
)

// blake2bObjectPrefix is the domain-separation byte prepended before
// hashing for every non-package created object.
const blake2bObjectPrefix = 0xF1

// Scheme describes which object indices a job's derivation covers.
type Scheme struct {
	// Start is the first index this scheme covers.
	Start uint64
	// End is one past the last index (End == Start+1 for IndexOnly).
	End uint64
}

// IndexOnly returns a Scheme covering the single index i.
func IndexOnly(i uint64) Scheme {
	return Scheme{Start: i, End: i + 1}
}

// IndexRange returns a Scheme covering [start, end).
func IndexRange(start, end uint64) Scheme {
	return Scheme{Start: start, End: end}
}

// Indices returns every index the scheme covers, in ascending order.
func (s Scheme) Indices() []uint64 {
	out := make([]uint64, 0, s.End-s.Start)
	for i := s.Start; i < s.End; i++ {
		out = append(out, i)
	}
	return out
}

// Spec pairs a Scheme with the Algorithm used to derive IDs for every
// index in that scheme — spec.md §3's DerivationSpec.
type Spec struct {
	Scheme    Scheme
	Algorithm Algorithm
}

// Deriver holds the per-worker hash state a mining loop reuses across
// nonces, avoiding per-candidate allocation. Not safe for concurrent use;
// each worker owns one.
type Deriver struct {
	algorithm Algorithm
	h         hash.Hash
}

// NewDeriver returns a Deriver for the given algorithm, pre-allocating the
// incremental hash context it will reuse for every Derive call.
func NewDeriver(algorithm Algorithm) *Deriver {
	d := &Deriver{algorithm: algorithm}
	switch algorithm {
	case Sha3_256:
		d.h = hashcore.NewSha3_256()
	case Blake2b_256WithPrefix:
		d.h = hashcore.NewBlake2b256()
	}
	return d
}

// Derive computes the object ID at the given index for the transaction
// digest txDigest, using the Deriver's fixed algorithm, into dst.
func (d *Deriver) Derive(txDigest [32]byte, index uint64, dst *[32]byte) {
	var idxLE [8]byte
	binary.LittleEndian.PutUint64(idxLE[:], index)

	switch d.algorithm {
	case Sha3_256:
		hashcore.Sha3_256Concat(d.h, dst, txDigest[:], idxLE[:])
	case Blake2b_256WithPrefix:
		hashcore.Blake2b256Concat(d.h, dst, []byte{blake2bObjectPrefix}, txDigest[:], idxLE[:])
	}
}

// Derive is a one-shot, allocation-light helper for callers outside the
// hot loop (tests) that don't hold a Deriver.
func Derive(algorithm Algorithm, txDigest [32]byte, index uint64) [32]byte {
	var idxLE [8]byte
	binary.LittleEndian.PutUint64(idxLE[:], index)

	switch algorithm {
	case Sha3_256:
		return hashcore.Sha3_256Sum(txDigest[:], idxLE[:])
	case Blake2b_256WithPrefix:
		return hashcore.Blake2b256Sum([]byte{blake2bObjectPrefix}, txDigest[:], idxLE[:])
	}
	panic("derive: unknown algorithm")
}
