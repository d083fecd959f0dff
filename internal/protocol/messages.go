// Package protocol defines the newline-delimited JSON wire messages the
// server driver exchanges with a client over the loopback-only TCP
// socket — spec.md §6's server wire protocol, grounded on
// original_source/cli/src/server.rs's ClientMessage/ServerMessage enums
// (there serde-tagged over a WebSocket; here the same tagged-union shape
// carried one JSON object per newline-terminated frame over raw TCP, per
// spec.md's explicit preference for that framing).
package protocol

import (
	"bufio"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/pkg/types"
)

// Client message type tags.
const (
	TypeStartPackageMining  = "start_package_mining"
	TypeStartGasCoinMining  = "start_gas_coin_mining"
	TypeStartMoveCallMining = "start_move_call_mining"
	TypeStopMining          = "stop_mining"
)

// Server message type tags.
const (
	TypeConnected     = "connected"
	TypeMiningStarted = "mining_started"
	TypeProgress      = "progress"
	TypePackageFound  = "package_found"
	TypeGasCoinFound  = "gas_coin_found"
	TypeMoveCallFound = "move_call_found"
	TypeStopped       = "stopped"
	TypeError         = "error"
)

// CallArgWire is the wire form of a types.CallArg: kind tags the variant,
// and exactly one of the typed fields is populated.
type CallArgWire struct {
	Kind    string `json:"kind"`
	Str     string `json:"str,omitempty"`
	Addr    string `json:"addr,omitempty"`
	Bool    bool   `json:"bool,omitempty"`
	Number  uint64 `json:"number,omitempty"`
	ObjectID string `json:"object_id,omitempty"`
	ObjectVersion uint64 `json:"object_version,omitempty"`
	ObjectDigest  string `json:"object_digest,omitempty"`
}

// ClientMessage is every field any client message type may carry; fields
// irrelevant to a given Type are left zero. Field names mirror spec.md
// §3's data model in snake_case, per spec.md §6.
type ClientMessage struct {
	Type string `json:"type"`

	Prefix           string   `json:"prefix,omitempty"`
	ModulesBase64    []string `json:"modules_base64,omitempty"`
	Sender           string   `json:"sender,omitempty"`
	GasBudget        uint64   `json:"gas_budget,omitempty"`
	GasPrice         uint64   `json:"gas_price,omitempty"`
	GasObjectID      string   `json:"gas_object_id,omitempty"`
	GasObjectVersion uint64   `json:"gas_object_version,omitempty"`
	GasObjectDigest  string   `json:"gas_object_digest,omitempty"`
	Threads          int      `json:"threads,omitempty"`
	StartNonce       uint64   `json:"start_nonce,omitempty"`

	SplitAmounts []uint64 `json:"split_amounts,omitempty"`

	Package     string        `json:"package,omitempty"`
	Module      string        `json:"module,omitempty"`
	Function    string        `json:"function,omitempty"`
	TypeArgs    []string      `json:"type_args,omitempty"`
	Args        []CallArgWire `json:"args,omitempty"`
	ObjectIndex uint64        `json:"object_index,omitempty"`
	TxBase64    string        `json:"tx_base64,omitempty"`
}

// ServerMessage is every field any server message type may carry.
type ServerMessage struct {
	Type string `json:"type"`

	Version string `json:"version,omitempty"`

	Mode              string `json:"mode,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	Difficulty        int    `json:"difficulty,omitempty"`
	EstimatedAttempts uint64 `json:"estimated_attempts,omitempty"`
	Threads           int    `json:"threads,omitempty"`

	Attempts uint64  `json:"attempts,omitempty"`
	Hashrate float64 `json:"hashrate,omitempty"`

	ObjectID      string `json:"object_id,omitempty"`
	ObjectIndex   uint64 `json:"object_index,omitempty"`
	TxDigest      string `json:"tx_digest,omitempty"`
	TxBytesBase64 string `json:"tx_bytes_base64,omitempty"`
	GasBudgetUsed uint64 `json:"gas_budget_used,omitempty"`

	LastNonce uint64 `json:"last_nonce,omitempty"`

	Message string `json:"message,omitempty"`
}

// HitMessage builds the mode-specific "<mode>_found" frame for a
// successful MiningHit.
func HitMessage(mode types.Mode, hit types.MiningHit, gasBudgetUsed uint64) ServerMessage {
	msg := ServerMessage{
		ObjectID:      hex.EncodeToString(hit.ObjectID[:]),
		ObjectIndex:   hit.ObjectIndex,
		TxDigest:      hex.EncodeToString(hit.TxDigest[:]),
		TxBytesBase64: base64.StdEncoding.EncodeToString(hit.TxBytes),
		Attempts:      hit.Nonce,
		GasBudgetUsed: gasBudgetUsed,
	}
	switch mode {
	case types.ModePackagePublish:
		msg.Type = TypePackageFound
	case types.ModeSplitCoin:
		msg.Type = TypeGasCoinFound
	case types.ModeGenericCall:
		msg.Type = TypeMoveCallFound
	}
	return msg
}

// ErrorMessage builds an "error" frame from err, using the textual
// message a human or client can act on.
func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Message: err.Error()}
}

// Reader reads newline-delimited ClientMessage JSON frames from a
// connection.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r for line-delimited JSON decoding.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{scanner: s}
}

// ReadMessage blocks for the next newline-terminated frame and decodes
// it. Returns io.EOF when the peer closes the connection.
func (r *Reader) ReadMessage() (ClientMessage, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return ClientMessage{}, err
		}
		return ClientMessage{}, io.EOF
	}
	var msg ClientMessage
	if err := json.Unmarshal(r.scanner.Bytes(), &msg); err != nil {
		return ClientMessage{}, errors.Wrapf(errs.ErrInvalidInput, "%v: malformed client frame", err)
	}
	return msg, nil
}

// Writer writes newline-delimited ServerMessage JSON frames to a
// connection.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for line-delimited JSON encoding.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage encodes msg as one JSON object followed by a newline.
func (w *Writer) WriteMessage(msg ServerMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(errs.ErrInternal, "%v: encoding server frame", err)
	}
	b = append(b, '\n')
	_, err = w.w.Write(b)
	return err
}
