package hashcore

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha3_256EmptyString(t *testing.T) {
	// NIST FIPS 202 / commonly published SHA3-256("") test vector.
	want, err := hex.DecodeString("a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a")
	require.NoError(t, err)

	got := Sha3_256Sum()
	require.Equal(t, want, got[:])
}

func TestBlake2b256Deterministic(t *testing.T) {
	a := Blake2b256Sum([]byte("sui vanity miner"))
	b := Blake2b256Sum([]byte("sui vanity miner"))
	require.Equal(t, a, b)
	require.Len(t, a, Size)
}

func TestHashesDiffer(t *testing.T) {
	input := []byte{0x01, 0x02, 0x03}
	b := Blake2b256Sum(input)
	s := Sha3_256Sum(input)
	require.NotEqual(t, b, s)
}

func TestConcatHelpersMatchOneShot(t *testing.T) {
	part1 := []byte{0xF1}
	part2 := make([]byte, 32)
	part3 := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	oneShot := Blake2b256Sum(part1, part2, part3)

	h := NewBlake2b256()
	var fused [32]byte
	Blake2b256Concat(h, &fused, part1, part2, part3)

	require.Equal(t, oneShot, fused)
}

func TestConcatHelperReusableAcrossCalls(t *testing.T) {
	h := NewBlake2b256()
	var first, second [32]byte

	Blake2b256Concat(h, &first, []byte("a"))
	Blake2b256Concat(h, &second, []byte("b"))

	require.NotEqual(t, first, second)
	require.Equal(t, Blake2b256Sum([]byte("a")), first)
	require.Equal(t, Blake2b256Sum([]byte("b")), second)
}
