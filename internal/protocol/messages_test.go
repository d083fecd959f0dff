package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suivanity/miner/pkg/types"
)

func TestWriterEmitsNewlineTerminatedJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteMessage(ServerMessage{Type: TypeConnected, Version: "1"}))

	line := buf.String()
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
	require.Contains(t, line, `"type":"connected"`)
}

func TestReaderDecodesClientMessage(t *testing.T) {
	body := `{"type":"start_package_mining","prefix":"dead","threads":4}` + "\n"
	r := NewReader(bytes.NewBufferString(body))

	msg, err := r.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, TypeStartPackageMining, msg.Type)
	require.Equal(t, "dead", msg.Prefix)
	require.Equal(t, 4, msg.Threads)
}

func TestReaderRejectsMalformedJSON(t *testing.T) {
	r := NewReader(bytes.NewBufferString("not json\n"))
	_, err := r.ReadMessage()
	require.Error(t, err)
}

func TestHitMessageUsesModeSpecificType(t *testing.T) {
	var hit types.MiningHit
	hit.ObjectID[0] = 0xAB

	pkgMsg := HitMessage(types.ModePackagePublish, hit, 12345)
	require.Equal(t, TypePackageFound, pkgMsg.Type)

	gasMsg := HitMessage(types.ModeSplitCoin, hit, 12345)
	require.Equal(t, TypeGasCoinFound, gasMsg.Type)

	moveMsg := HitMessage(types.ModeGenericCall, hit, 12345)
	require.Equal(t, TypeMoveCallFound, moveMsg.Type)
	require.Equal(t, "ab00000000000000000000000000000000000000000000000000000000000000", moveMsg.ObjectID)
}
