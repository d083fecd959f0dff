// Package types holds the shared value types passed between the driver,
// the template builders, and the mining engine: spec.md §3's data model.
package types

import (
	"time"

	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/derive"
)

// Mode selects which TemplateBuilder a MiningJob targets.
type Mode int

const (
	ModePackagePublish Mode = iota
	ModeSplitCoin
	ModeGenericCall
)

func (m Mode) String() string {
	switch m {
	case ModePackagePublish:
		return "package"
	case ModeSplitCoin:
		return "gas"
	case ModeGenericCall:
		return "move"
	default:
		return "unknown"
	}
}

// PublishInput is the mode-specific payload for ModePackagePublish.
type PublishInput struct {
	Sender    sui.Address
	Modules   [][]byte
	GasObject sui.GasObjectRef
}

// SplitCoinInput is the mode-specific payload for ModeSplitCoin.
type SplitCoinInput struct {
	Sender       sui.Address
	GasObject    sui.GasObjectRef
	SplitAmounts []uint64
}

// CallArgKind tags the variant of a CallArg's value.
type CallArgKind int

const (
	CallArgString CallArgKind = iota
	CallArgAddress
	CallArgBool
	CallArgNumber
	CallArgObject
)

// CallArg is one typed argument to a Move call — spec.md §4.2.3.
type CallArg struct {
	Kind    CallArgKind
	Str     string
	Addr    sui.Address
	Bool    bool
	Number  uint64
	Object  sui.GasObjectRef
}

// CallTarget identifies the Move function a GenericCall mode invokes.
type CallTarget struct {
	Package  sui.Address
	Module   string
	Function string
}

// GenericCallInput is the mode-specific payload for ModeGenericCall. If
// RawTxBase64 is non-empty the builder parses it structurally instead of
// constructing the ProgrammableTransaction from Target/TypeArgs/Args —
// spec.md §9's open question on raw transaction acceptance.
type GenericCallInput struct {
	Sender      sui.Address
	GasObject   sui.GasObjectRef
	Target      CallTarget
	TypeArgs    []string
	Args        []CallArg
	TargetIndex uint64
	RawTxBase64 string
}

// MiningJob is the immutable description of one mining run — spec.md §3.
type MiningJob struct {
	Mode       Mode
	Prefix     string
	Workers    int
	StartNonce uint64
	GasPrice   uint64
	GasBudget  uint64

	Publish    *PublishInput
	SplitCoin  *SplitCoinInput
	GenericCall *GenericCallInput
}

// Template is TemplateBuilder's output — spec.md §3's "Transaction
// template".
type Template struct {
	Bytes       []byte
	NonceOffset int
	Derivation  derive.Spec
}

// ProgressTick is sent worker -> reducer, many times per second.
type ProgressTick struct {
	WorkerID      int
	DeltaAttempts uint64
}

// ProgressReport is sent reducer -> driver/client, about twice a second.
type ProgressReport struct {
	Attempts  uint64
	Hashrate  float64
	LastNonce uint64
}

// MiningHit is the result of a successful prefix match.
type MiningHit struct {
	Nonce       uint64
	ObjectIndex uint64
	TxDigest    [32]byte
	ObjectID    [32]byte
	TxBytes     []byte
	Elapsed     time.Duration
}
