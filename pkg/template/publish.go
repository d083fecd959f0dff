package template

import (
	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/bcs"
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/derive"
	"github.com/suivanity/miner/pkg/types"
)

// estimatedTxCapacity is a rough byte-size hint for the encoder's initial
// allocation, sized for a small single-module publish; the encoder grows
// past this freely for larger inputs.
const estimatedTxCapacity = 512

// BuildPackagePublish constructs the transaction template for
// spec.md §4.2.1: one Publish command followed by one TransferObjects of
// the resulting UpgradeCap to sender. in.Modules must already be in the
// stable deterministic order (lexicographic by filename) the caller
// established when loading them — see config.LoadModules — this builder
// serializes them in the order given, it does not re-sort by content.
func BuildPackagePublish(in types.PublishInput, gasPrice, baseGasBudget uint64) (types.Template, error) {
	if len(in.Modules) == 0 {
		return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "package publish requires at least one module")
	}

	modules := in.Modules

	e := bcs.NewEncoder(estimatedTxCapacity)
	writeTransactionHeader(e)

	// inputs: [0] = sender address, as a Pure CallArg for TransferObjects' recipient.
	e.WriteVector(1)
	writeCallArgPure(e, in.Sender[:])

	// commands: [0] Publish, [1] TransferObjects.
	e.WriteVector(2)

	e.WriteVariant(commandPublishTag)
	e.WriteVector(len(modules))
	for _, m := range modules {
		e.WriteBytes(m)
	}
	e.WriteVector(2)
	e.WriteFixedBytes(sui.MoveStdAddress[:])
	e.WriteFixedBytes(sui.FrameworkAddress[:])

	e.WriteVariant(commandTransferObjectsTag)
	e.WriteVector(1)
	writeArgumentResult(e, 0)
	writeArgumentInput(e, 0)

	nonceOffset := writeTransactionTail(e, in.Sender, []sui.GasObjectRef{in.GasObject}, in.Sender, gasPrice, baseGasBudget)

	txBytes := e.Bytes()
	if err := selfCheck(txBytes, nonceOffset); err != nil {
		return types.Template{}, err
	}

	return types.Template{
		Bytes:       txBytes,
		NonceOffset: nonceOffset,
		Derivation: derive.Spec{
			Scheme:    derive.IndexOnly(0),
			Algorithm: derive.Sha3_256,
		},
	}, nil
}

