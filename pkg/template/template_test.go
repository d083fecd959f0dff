package template

import (
	"encoding/base64"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/derive"
	"github.com/suivanity/miner/pkg/types"
)

func testGasObject() sui.GasObjectRef {
	var ref sui.GasObjectRef
	ref.ID[0] = 0x02
	ref.Version = 1
	return ref
}

func testSender() sui.Address {
	var a sui.Address
	a[0] = 0x01
	return a
}

func TestBuildPackagePublishShape(t *testing.T) {
	in := types.PublishInput{
		Sender:    testSender(),
		Modules:   [][]byte{{0xCA, 0xFE, 0xBA, 0xBE}},
		GasObject: testGasObject(),
	}

	tmpl, err := BuildPackagePublish(in, 1000, 100_000_000)
	require.NoError(t, err)
	require.Equal(t, derive.IndexOnly(0), tmpl.Derivation.Scheme)
	require.Equal(t, derive.Sha3_256, tmpl.Derivation.Algorithm)
	requireGasBudgetAt(t, tmpl, 100_000_000)
}

func TestBuildPackagePublishRejectsEmptyModules(t *testing.T) {
	in := types.PublishInput{Sender: testSender(), GasObject: testGasObject()}
	_, err := BuildPackagePublish(in, 1000, 1)
	require.Error(t, err)
}

func TestBuildSplitCoinShape(t *testing.T) {
	in := types.SplitCoinInput{
		Sender:       testSender(),
		GasObject:    testGasObject(),
		SplitAmounts: []uint64{100, 200, 300},
	}

	tmpl, err := BuildSplitCoin(in, 1000, 50_000_000)
	require.NoError(t, err)
	require.Equal(t, derive.IndexRange(0, 3), tmpl.Derivation.Scheme)
	require.Equal(t, derive.Blake2b_256WithPrefix, tmpl.Derivation.Algorithm)
	requireGasBudgetAt(t, tmpl, 50_000_000)
}

func TestBuildSplitCoinRejectsZeroAmount(t *testing.T) {
	in := types.SplitCoinInput{
		Sender:       testSender(),
		GasObject:    testGasObject(),
		SplitAmounts: []uint64{100, 0},
	}
	_, err := BuildSplitCoin(in, 1000, 1)
	require.Error(t, err)
}

func TestBuildSplitCoinRejectsNoAmounts(t *testing.T) {
	in := types.SplitCoinInput{Sender: testSender(), GasObject: testGasObject()}
	_, err := BuildSplitCoin(in, 1000, 1)
	require.Error(t, err)
}

func TestBuildGenericCallShape(t *testing.T) {
	in := types.GenericCallInput{
		Sender:    testSender(),
		GasObject: testGasObject(),
		Target: types.CallTarget{
			Package:  sui.FrameworkAddress,
			Module:   "coin",
			Function: "mint",
		},
		Args: []types.CallArg{
			{Kind: types.CallArgNumber, Number: 42},
			{Kind: types.CallArgBool, Bool: true},
		},
		TargetIndex: 0,
	}

	tmpl, err := BuildGenericCall(in, 1000, 10_000_000)
	require.NoError(t, err)
	require.Equal(t, derive.IndexOnly(0), tmpl.Derivation.Scheme)
	require.Equal(t, derive.Blake2b_256WithPrefix, tmpl.Derivation.Algorithm)
	requireGasBudgetAt(t, tmpl, 10_000_000)
}

func TestBuildGenericCallFromBase64(t *testing.T) {
	built, err := BuildGenericCall(types.GenericCallInput{
		Sender:    testSender(),
		GasObject: testGasObject(),
		Target:    types.CallTarget{Package: sui.FrameworkAddress, Module: "coin", Function: "mint"},
		Args:      []types.CallArg{{Kind: types.CallArgNumber, Number: 7}},
	}, 1000, 22_000_000)
	require.NoError(t, err)

	raw := base64.StdEncoding.EncodeToString(built.Bytes)
	replayed, err := BuildGenericCall(types.GenericCallInput{RawTxBase64: raw, TargetIndex: 5}, 0, 0)
	require.NoError(t, err)

	require.Equal(t, built.NonceOffset, replayed.NonceOffset)
	require.Equal(t, built.Bytes, replayed.Bytes)
	require.Equal(t, derive.IndexOnly(5), replayed.Derivation.Scheme)
}

func TestBuildGenericCallRejectsMalformedBase64(t *testing.T) {
	_, err := BuildGenericCall(types.GenericCallInput{RawTxBase64: "not valid base64!!"}, 0, 0)
	require.Error(t, err)
}

// P4: for every job and every nonce n in [0, 2^20), writing n at
// nonce_offset of a freshly built template yields a buffer that decodes
// with gas.budget == n.
func TestNonceInjectionRoundTrip(t *testing.T) {
	tmpl, err := BuildPackagePublish(types.PublishInput{
		Sender:    testSender(),
		Modules:   [][]byte{{0x01, 0x02}},
		GasObject: testGasObject(),
	}, 1000, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 64; i++ {
		n := rng.Uint64() % (1 << 20)
		requireGasBudgetAt(t, tmpl, n)
	}
}

func requireGasBudgetAt(t *testing.T, tmpl types.Template, value uint64) {
	t.Helper()
	buf := make([]byte, len(tmpl.Bytes))
	copy(buf, tmpl.Bytes)
	binary.LittleEndian.PutUint64(buf[tmpl.NonceOffset:tmpl.NonceOffset+8], value)

	got, err := decodeGasBudget(buf)
	if err != nil {
		t.Logf("template dump:\n%s", spew.Sdump(tmpl))
	}
	require.NoError(t, err)
	require.Equal(t, value, got)
}
