package sui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAddressShortFormPadsLeft(t *testing.T) {
	a, err := ParseAddress("0x2")
	require.NoError(t, err)
	require.Equal(t, FrameworkAddress, a)
}

func TestParseAddressRejectsEmpty(t *testing.T) {
	_, err := ParseAddress("0x")
	require.Error(t, err)
}

func TestParseObjectIDRequiresFullWidth(t *testing.T) {
	_, err := ParseObjectID("0x01")
	require.Error(t, err)

	full := "0x" + repeat("ab", 32)
	id, err := ParseObjectID(full)
	require.NoError(t, err)
	require.Equal(t, byte(0xab), id[0])
	require.Equal(t, byte(0xab), id[31])
}

func TestObjectDigestBase58RoundTrip(t *testing.T) {
	var d ObjectDigest
	for i := range d {
		d[i] = byte(i)
	}
	encoded := d.Base58()
	decoded, err := ParseObjectDigestBase58(encoded)
	require.NoError(t, err)
	require.Equal(t, d, decoded)
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
