package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvenPrefixMatch(t *testing.T) {
	m, err := New("00")
	require.NoError(t, err)

	var id [32]byte
	require.True(t, m.Matches(id[:]))

	id[0] = 0x01
	require.False(t, m.Matches(id[:]))
}

func TestOddPrefixHighNibble(t *testing.T) {
	m, err := New("0")
	require.NoError(t, err)

	var id [32]byte
	id[0] = 0x0F
	require.True(t, m.Matches(id[:]))

	id[0] = 0x10
	require.False(t, m.Matches(id[:]))
}

func TestLongerPrefix(t *testing.T) {
	m, err := New("deadbeef")
	require.NoError(t, err)

	id := [32]byte{0xde, 0xad, 0xbe, 0xef}
	require.True(t, m.Matches(id[:]))

	id[3] = 0xee
	require.False(t, m.Matches(id[:]))
}

func TestDifficultyAndEstimate(t *testing.T) {
	cases := []struct {
		prefix     string
		difficulty int
		attempts   uint64
	}{
		{"a", 1, 16},
		{"abc", 3, 4096},
		{"dead", 4, 65536},
		{"face", 4, 65536},
	}
	for _, tc := range cases {
		m, err := New(tc.prefix)
		require.NoError(t, err)
		require.Equal(t, tc.difficulty, m.Difficulty())
		require.Equal(t, tc.attempts, m.EstimatedAttempts())
	}
}

func TestCaseInsensitive(t *testing.T) {
	lower, err := New("dead")
	require.NoError(t, err)
	upper, err := New("DEAD")
	require.NoError(t, err)
	id := [32]byte{0xde, 0xad}
	require.Equal(t, lower.Matches(id[:]), upper.Matches(id[:]))
	require.True(t, upper.Matches(id[:]))
}

func TestRejectsEmptyPrefix(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestRejectsTooLongPrefix(t *testing.T) {
	long := make([]byte, MaxPrefixChars+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := New(string(long))
	require.Error(t, err)
}

func TestRejectsNonHex(t *testing.T) {
	_, err := New("zz")
	require.Error(t, err)
}

// P2: for every prefix of length L<=64, Matches(candidate) holds iff the
// first L hex characters of candidate's uppercase hex encoding equal the
// uppercased prefix.
func TestMatchesAgreesWithHexEncoding(t *testing.T) {
	candidate := [32]byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x23}
	hexUpper := "DEADBEEF0123"

	for l := 1; l <= len(hexUpper); l++ {
		prefix := hexUpper[:l]
		m, err := New(prefix)
		require.NoError(t, err)
		require.True(t, m.Matches(candidate[:]), "prefix %q should match", prefix)
	}

	m, err := New("DEADBEEE")
	require.NoError(t, err)
	require.False(t, m.Matches(candidate[:]))
}
