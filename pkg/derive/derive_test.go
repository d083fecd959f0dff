package derive

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexOnlyAndIndexRange(t *testing.T) {
	require.Equal(t, []uint64{5}, IndexOnly(5).Indices())
	require.Equal(t, []uint64{0, 1, 2}, IndexRange(0, 3).Indices())
}

func TestDeriveMatchesOneShot(t *testing.T) {
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i * 7)
	}

	for _, algo := range []Algorithm{Sha3_256, Blake2b_256WithPrefix} {
		oneShot := Derive(algo, digest, 3)

		d := NewDeriver(algo)
		var via [32]byte
		d.Derive(digest, 3, &via)

		require.Equal(t, oneShot, via)
	}
}

func TestDeriverReusableAcrossIndices(t *testing.T) {
	var digest [32]byte
	d := NewDeriver(Blake2b_256WithPrefix)

	var a, b [32]byte
	d.Derive(digest, 0, &a)
	d.Derive(digest, 1, &b)

	require.NotEqual(t, a, b)
	require.Equal(t, Derive(Blake2b_256WithPrefix, digest, 0), a)
	require.Equal(t, Derive(Blake2b_256WithPrefix, digest, 1), b)
}

// P3: for a fixed digest, derive(digest, i) != derive(digest, j) for i != j,
// with overwhelming probability, over random digests and the first 256
// indices.
func TestDerivationUniquenessAcrossIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, algo := range []Algorithm{Sha3_256, Blake2b_256WithPrefix} {
		var digest [32]byte
		rng.Read(digest[:])

		seen := make(map[[32]byte]uint64, 256)
		for i := uint64(0); i < 256; i++ {
			id := Derive(algo, digest, i)
			if prior, ok := seen[id]; ok {
				t.Fatalf("collision between index %d and %d for algorithm %v", prior, i, algo)
			}
			seen[id] = i
		}
	}
}

func TestSha3AndBlake2bDifferForSameInputs(t *testing.T) {
	var digest [32]byte
	a := Derive(Sha3_256, digest, 0)
	b := Derive(Blake2b_256WithPrefix, digest, 0)
	require.NotEqual(t, a, b)
}
