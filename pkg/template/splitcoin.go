package template

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/bcs"
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/derive"
	"github.com/suivanity/miner/pkg/types"
)

// BuildSplitCoin constructs the transaction template for spec.md §4.2.2:
// SplitCoins(GasCoin, [amounts]) followed by a TransferObjects of every
// resulting coin to sender.
func BuildSplitCoin(in types.SplitCoinInput, gasPrice, baseGasBudget uint64) (types.Template, error) {
	if len(in.SplitAmounts) == 0 {
		return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "split coin requires at least one amount")
	}
	var sum uint64
	for _, a := range in.SplitAmounts {
		if a == 0 {
			return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "split amount must be nonzero")
		}
		sum += a
	}

	e := bcs.NewEncoder(estimatedTxCapacity)
	writeTransactionHeader(e)

	// inputs: one Pure(u64) per amount, then Pure(address) for sender.
	n := len(in.SplitAmounts)
	e.WriteVector(n + 1)
	for _, amount := range in.SplitAmounts {
		var amountLE [8]byte
		binary.LittleEndian.PutUint64(amountLE[:], amount)
		writeCallArgPure(e, amountLE[:])
	}
	writeCallArgPure(e, in.Sender[:])

	// commands: [0] SplitCoins, [1] TransferObjects.
	e.WriteVector(2)

	e.WriteVariant(commandSplitCoinsTag)
	writeArgumentGasCoin(e)
	e.WriteVector(n)
	for i := 0; i < n; i++ {
		writeArgumentInput(e, uint16(i))
	}

	e.WriteVariant(commandTransferObjectsTag)
	e.WriteVector(n)
	for i := 0; i < n; i++ {
		writeArgumentNestedResult(e, 0, uint16(i))
	}
	writeArgumentInput(e, uint16(n))

	nonceOffset := writeTransactionTail(e, in.Sender, []sui.GasObjectRef{in.GasObject}, in.Sender, gasPrice, baseGasBudget)

	txBytes := e.Bytes()
	if err := selfCheck(txBytes, nonceOffset); err != nil {
		return types.Template{}, err
	}

	return types.Template{
		Bytes:       txBytes,
		NonceOffset: nonceOffset,
		Derivation: derive.Spec{
			Scheme:    derive.IndexRange(0, uint64(n)),
			Algorithm: derive.Blake2b_256WithPrefix,
		},
	}, nil
}
