package template

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/suivanity/miner/internal/bcs"
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/derive"
	"github.com/suivanity/miner/pkg/types"
)

// BuildGenericCall constructs the transaction template for spec.md
// §4.2.3: a single MoveCall command targeting (package, module,
// function). If in.RawTxBase64 is set, the raw bytes are parsed
// structurally instead — spec.md §9's preferred resolution of the
// raw-tx_base64 open question.
func BuildGenericCall(in types.GenericCallInput, gasPrice, baseGasBudget uint64) (types.Template, error) {
	if in.RawTxBase64 != "" {
		return buildFromBase64(in)
	}
	return buildFromCallBuilder(in, gasPrice, baseGasBudget)
}

func buildFromCallBuilder(in types.GenericCallInput, gasPrice, baseGasBudget uint64) (types.Template, error) {
	if err := validateCallArgs(in.Args); err != nil {
		return types.Template{}, err
	}

	e := bcs.NewEncoder(estimatedTxCapacity)
	writeTransactionHeader(e)

	e.WriteVector(len(in.Args))
	for _, arg := range in.Args {
		if err := writeGenericCallArg(e, arg); err != nil {
			return types.Template{}, err
		}
	}

	e.WriteVector(1)
	e.WriteVariant(commandMoveCallTag)
	e.WriteFixedBytes(in.Target.Package[:])
	e.WriteBytes([]byte(in.Target.Module))
	e.WriteBytes([]byte(in.Target.Function))

	e.WriteVector(len(in.TypeArgs))
	for _, t := range in.TypeArgs {
		if err := writeTypeTag(e, t); err != nil {
			return types.Template{}, err
		}
	}

	e.WriteVector(len(in.Args))
	for i := range in.Args {
		writeArgumentInput(e, uint16(i))
	}

	nonceOffset := writeTransactionTail(e, in.Sender, []sui.GasObjectRef{in.GasObject}, in.Sender, gasPrice, baseGasBudget)

	txBytes := e.Bytes()
	if err := selfCheck(txBytes, nonceOffset); err != nil {
		return types.Template{}, err
	}

	return types.Template{
		Bytes:       txBytes,
		NonceOffset: nonceOffset,
		Derivation: derive.Spec{
			Scheme:    derive.IndexOnly(in.TargetIndex),
			Algorithm: derive.Blake2b_256WithPrefix,
		},
	}, nil
}

// validateCallArgs aggregates every malformed argument into a single
// multierr rather than failing on the first one, so a caller building a
// call from user-supplied form fields sees every problem at once.
func validateCallArgs(args []types.CallArg) error {
	var merr error
	for i, arg := range args {
		switch arg.Kind {
		case types.CallArgString, types.CallArgAddress, types.CallArgBool, types.CallArgNumber, types.CallArgObject:
			// recognized kinds; nothing further to validate structurally.
		default:
			merr = multierr.Append(merr, errors.Wrapf(errs.ErrInvalidInput, "arg %d: unknown CallArg kind %d", i, arg.Kind))
		}
	}
	if merr != nil {
		return errors.Wrap(merr, errs.ErrInvalidInput.Error())
	}
	return nil
}

func writeGenericCallArg(e *bcs.Encoder, arg types.CallArg) error {
	switch arg.Kind {
	case types.CallArgString:
		writeCallArgPure(e, bcsEncodeString(arg.Str))
	case types.CallArgAddress:
		writeCallArgPure(e, arg.Addr[:])
	case types.CallArgBool:
		if arg.Bool {
			writeCallArgPure(e, []byte{1})
		} else {
			writeCallArgPure(e, []byte{0})
		}
	case types.CallArgNumber:
		var le [8]byte
		binary.LittleEndian.PutUint64(le[:], arg.Number)
		writeCallArgPure(e, le[:])
	case types.CallArgObject:
		writeCallArgObject(e, arg.Object)
	default:
		return errors.Wrapf(errs.ErrInvalidInput, "unknown CallArg kind %d", arg.Kind)
	}
	return nil
}

// bcsEncodeString returns the BCS encoding of a Move String (a
// ULEB128-length-prefixed UTF-8 byte vector), which is itself wrapped in
// CallArg::Pure.
func bcsEncodeString(s string) []byte {
	inner := bcs.NewEncoder(len(s) + 1)
	inner.WriteBytes([]byte(s))
	return inner.Bytes()
}

// buildFromBase64 decodes a caller-supplied raw transaction and locates
// nonce_offset by structural BCS parse, never by substring search on the
// placeholder — spec.md §9.
func buildFromBase64(in types.GenericCallInput) (types.Template, error) {
	txBytes, err := base64.StdEncoding.DecodeString(in.RawTxBase64)
	if err != nil {
		return types.Template{}, errors.Wrapf(errs.ErrInvalidInput, "%v: malformed tx_base64", err)
	}

	nonceOffset, err := locateGasBudgetOffset(txBytes)
	if err != nil {
		return types.Template{}, errors.Wrapf(errs.ErrSerialization, "%v: could not structurally locate gas_budget", err)
	}

	if err := selfCheck(txBytes, nonceOffset); err != nil {
		return types.Template{}, err
	}

	return types.Template{
		Bytes:       txBytes,
		NonceOffset: nonceOffset,
		Derivation: derive.Spec{
			Scheme:    derive.IndexOnly(in.TargetIndex),
			Algorithm: derive.Blake2b_256WithPrefix,
		},
	}, nil
}

// locateGasBudgetOffset performs the same structural walk as
// decodeGasBudget but returns the offset instead of the value.
func locateGasBudgetOffset(txBytes []byte) (int, error) {
	d := bcs.NewDecoder(txBytes)

	tag, err := d.ReadU8()
	if err != nil {
		return 0, err
	}
	if tag != transactionDataV1Tag {
		return 0, errors.Wrapf(errs.ErrSerialization, "unsupported TransactionData variant %d", tag)
	}
	kindTag, err := d.ReadU8()
	if err != nil {
		return 0, err
	}
	if kindTag != transactionKindPTTag {
		return 0, errors.Wrapf(errs.ErrSerialization, "unsupported TransactionKind variant %d", kindTag)
	}
	if err := skipProgrammableTransaction(d); err != nil {
		return 0, err
	}
	if err := d.Skip(sui.AddressSize); err != nil { // sender
		return 0, err
	}

	paymentLen, err := d.ReadULEB128()
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < paymentLen; i++ {
		if err := skipObjectRef(d); err != nil {
			return 0, err
		}
	}
	if err := d.Skip(sui.AddressSize); err != nil { // owner
		return 0, err
	}
	if _, err := d.ReadU64(); err != nil { // price
		return 0, err
	}

	return d.Pos(), nil
}
