// Package template implements the three TemplateBuilders of spec.md §4.2:
// PackagePublish, SplitCoin, and GenericCall. Each builds a
// TransactionData::V1 BCS buffer and records the byte offset of its
// mutable gas_budget field by construction, grounded on
// original_source/cli/src/common.rs's create_tx_template (which the
// mining loop in cpu_miner.rs and gas_coin_miner.rs treats the same way,
// varying gas_budget rather than the epoch placeholder common.rs itself
// looks for — see DESIGN.md's Open Question decisions).
package template

import (
	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/bcs"
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/sui"
)

// BCS enum discriminants for the Sui transaction wire types this package
// encodes. Named here, once, rather than scattered as magic numbers.
const (
	transactionDataV1Tag       = 0x00
	transactionKindPTTag       = 0x00
	transactionExpirationNone  = 0x00

	callArgPureTag   = 0x00
	callArgObjectTag = 0x01

	objectArgImmOrOwnedTag = 0x00

	argumentGasCoinTag      = 0x00
	argumentInputTag        = 0x01
	argumentResultTag       = 0x02
	argumentNestedResultTag = 0x03

	commandMoveCallTag        = 0x00
	commandTransferObjectsTag = 0x01
	commandSplitCoinsTag      = 0x02
	commandPublishTag         = 0x04

	typeTagBool    = 0
	typeTagU8      = 1
	typeTagU64     = 2
	typeTagU128    = 3
	typeTagAddress = 4
	typeTagSigner  = 5
	typeTagVector  = 6
	typeTagU16     = 8
	typeTagU32     = 9
	typeTagU256    = 10
)

// writeObjectRef encodes a (ObjectID, SequenceNumber, ObjectDigest) tuple,
// the (ID, version, digest) form used for gas payment and owned-object
// inputs throughout the transaction.
func writeObjectRef(e *bcs.Encoder, ref sui.GasObjectRef) {
	e.WriteFixedBytes(ref.ID[:])
	e.WriteU64(ref.Version)
	e.WriteFixedBytes(ref.Digest[:])
}

// writeArgumentInput writes Argument::Input(u16).
func writeArgumentInput(e *bcs.Encoder, index uint16) {
	e.WriteVariant(argumentInputTag)
	e.WriteU16(index)
}

// writeArgumentResult writes Argument::Result(u16).
func writeArgumentResult(e *bcs.Encoder, index uint16) {
	e.WriteVariant(argumentResultTag)
	e.WriteU16(index)
}

// writeArgumentNestedResult writes Argument::NestedResult(u16, u16).
func writeArgumentNestedResult(e *bcs.Encoder, cmdIndex, subIndex uint16) {
	e.WriteVariant(argumentNestedResultTag)
	e.WriteU16(cmdIndex)
	e.WriteU16(subIndex)
}

// writeArgumentGasCoin writes Argument::GasCoin.
func writeArgumentGasCoin(e *bcs.Encoder) {
	e.WriteVariant(argumentGasCoinTag)
}

// writeCallArgPure writes CallArg::Pure(bcs_bytes) — bcsBytes is the
// already-BCS-encoded representation of the pure value (e.g. 8
// little-endian bytes for a u64, 32 raw bytes for an address, a
// length-prefixed vector for a string).
func writeCallArgPure(e *bcs.Encoder, bcsBytes []byte) {
	e.WriteVariant(callArgPureTag)
	e.WriteBytes(bcsBytes)
}

// writeCallArgObject writes CallArg::Object(ObjectArg::ImmOrOwnedObject(ref)).
// Shared and receiving objects are out of scope: every object this
// builder references is an owned object pinned by (id, version, digest).
func writeCallArgObject(e *bcs.Encoder, ref sui.GasObjectRef) {
	e.WriteVariant(callArgObjectTag)
	e.WriteVariant(objectArgImmOrOwnedTag)
	writeObjectRef(e, ref)
}

// writeTypeTag encodes a narrow subset of Move's TypeTag: the primitive
// scalar kinds and vector<T> of them, recursively. Struct type tags are
// out of scope for this builder — GenericCall jobs need only the scalar
// and vector argument shapes exercised by spec.md's test scenarios.
func writeTypeTag(e *bcs.Encoder, name string) error {
	if len(name) > 8 && name[:7] == "vector<" && name[len(name)-1] == '>' {
		e.WriteVariant(typeTagVector)
		return writeTypeTag(e, name[7:len(name)-1])
	}
	switch name {
	case "bool":
		e.WriteVariant(typeTagBool)
	case "u8":
		e.WriteVariant(typeTagU8)
	case "u16":
		e.WriteVariant(typeTagU16)
	case "u32":
		e.WriteVariant(typeTagU32)
	case "u64":
		e.WriteVariant(typeTagU64)
	case "u128":
		e.WriteVariant(typeTagU128)
	case "u256":
		e.WriteVariant(typeTagU256)
	case "address":
		e.WriteVariant(typeTagAddress)
	case "signer":
		e.WriteVariant(typeTagSigner)
	default:
		return errors.Wrapf(errs.ErrInvalidInput, "unsupported type tag %q", name)
	}
	return nil
}

// gasDataResult carries the nonce_offset discovered while writing GasData.
type gasDataResult struct {
	nonceOffset int
}

// writeGasData encodes GasData{payment, owner, price, budget} and returns
// the offset at which budget (the mutable nonce field) was written.
func writeGasData(e *bcs.Encoder, payment []sui.GasObjectRef, owner sui.Address, price, budget uint64) gasDataResult {
	e.WriteVector(len(payment))
	for _, p := range payment {
		writeObjectRef(e, p)
	}
	e.WriteFixedBytes(owner[:])
	e.WriteU64(price)

	nonceOffset := e.Offset()
	e.WriteU64(budget)

	return gasDataResult{nonceOffset: nonceOffset}
}

// writeTransactionHeader writes the TransactionData::V1 and
// TransactionKind::ProgrammableTransaction enum tags that precede every
// ProgrammableTransaction body.
func writeTransactionHeader(e *bcs.Encoder) {
	e.WriteVariant(transactionDataV1Tag)
	e.WriteVariant(transactionKindPTTag)
}

// writeTransactionTail writes sender, gas_data, and
// TransactionExpiration::None, returning the recorded nonce_offset.
func writeTransactionTail(e *bcs.Encoder, sender sui.Address, payment []sui.GasObjectRef, owner sui.Address, price, budget uint64) int {
	e.WriteFixedBytes(sender[:])
	gd := writeGasData(e, payment, owner, price, budget)
	e.WriteVariant(transactionExpirationNone)
	return gd.nonceOffset
}

// selfCheck is spec.md §4.2's debug-only edge case: write a known
// sentinel at nonceOffset, decode the buffer structurally, and confirm
// the sentinel surfaces as the TransactionDataV1.gas_data.budget field.
// Every builder calls this once after assembling its template; a failure
// here means the offset bookkeeping above has a bug, not that the user's
// input was bad, so it is wrapped in ErrInternal.
func selfCheck(txBytes []byte, nonceOffset int) error {
	const sentinel uint64 = 0xAAAAAAAAAAAAAAAA

	probe := make([]byte, len(txBytes))
	copy(probe, txBytes)
	if nonceOffset+8 > len(probe) {
		return errors.Wrapf(errs.ErrInternal, "nonce_offset %d out of range for %d-byte template", nonceOffset, len(probe))
	}
	for i := 0; i < 8; i++ {
		probe[nonceOffset+i] = byte(sentinel >> (8 * uint(i)))
	}

	budget, err := decodeGasBudget(probe)
	if err != nil {
		return errors.Wrapf(errs.ErrInternal, "%v: self-check could not decode budget", err)
	}
	if budget != sentinel {
		return errors.Wrapf(errs.ErrInternal, "self-check: sentinel %x surfaced as budget %x", sentinel, budget)
	}
	return nil
}

// decodeGasBudget structurally walks a TransactionData::V1 buffer to
// locate and return gas_data.budget — used only by selfCheck and by
// GenericCall's raw-tx_base64 acceptance path (spec.md §9), never by
// substring search.
func decodeGasBudget(txBytes []byte) (uint64, error) {
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

	if _, err := d.ReadFixedBytes(sui.AddressSize); err != nil { // sender
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
	if _, err := d.ReadFixedBytes(sui.AddressSize); err != nil { // owner
		return 0, err
	}
	if _, err := d.ReadU64(); err != nil { // price
		return 0, err
	}
	return d.ReadU64() // budget
}

func skipObjectRef(d *bcs.Decoder) error {
	if err := d.Skip(sui.AddressSize); err != nil { // object id
		return err
	}
	if _, err := d.ReadU64(); err != nil { // version
		return err
	}
	return d.Skip(sui.AddressSize) // digest
}

// skipProgrammableTransaction walks past inputs: Vec<CallArg> and
// commands: Vec<Command> without interpreting their contents beyond what
// is needed to know each element's length — enough to reach sender, which
// follows the PT in TransactionDataV1.
func skipProgrammableTransaction(d *bcs.Decoder) error {
	inputsLen, err := d.ReadULEB128()
	if err != nil {
		return err
	}
	for i := uint64(0); i < inputsLen; i++ {
		if err := skipCallArg(d); err != nil {
			return err
		}
	}

	commandsLen, err := d.ReadULEB128()
	if err != nil {
		return err
	}
	for i := uint64(0); i < commandsLen; i++ {
		if err := skipCommand(d); err != nil {
			return err
		}
	}
	return nil
}

func skipCallArg(d *bcs.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case callArgPureTag:
		_, err := d.ReadBytes()
		return err
	case callArgObjectTag:
		objTag, err := d.ReadU8()
		if err != nil {
			return err
		}
		switch objTag {
		case objectArgImmOrOwnedTag:
			return skipObjectRef(d)
		default:
			return errors.Wrapf(errs.ErrSerialization, "unsupported ObjectArg variant %d", objTag)
		}
	default:
		return errors.Wrapf(errs.ErrSerialization, "unsupported CallArg variant %d", tag)
	}
}

func skipArgument(d *bcs.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case argumentGasCoinTag:
		return nil
	case argumentInputTag:
		_, err := d.ReadFixedBytes(2)
		return err
	case argumentResultTag:
		_, err := d.ReadFixedBytes(2)
		return err
	case argumentNestedResultTag:
		_, err := d.ReadFixedBytes(4)
		return err
	default:
		return errors.Wrapf(errs.ErrSerialization, "unsupported Argument variant %d", tag)
	}
}

func skipTypeTag(d *bcs.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	if tag == typeTagVector {
		return skipTypeTag(d)
	}
	return nil
}

func skipCommand(d *bcs.Decoder) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	switch tag {
	case commandMoveCallTag:
		if err := d.Skip(sui.AddressSize); err != nil { // package
			return err
		}
		if _, err := d.ReadBytes(); err != nil { // module (Identifier == String == Vec<u8>)
			return err
		}
		if _, err := d.ReadBytes(); err != nil { // function
			return err
		}
		typeArgsLen, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < typeArgsLen; i++ {
			if err := skipTypeTag(d); err != nil {
				return err
			}
		}
		argsLen, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < argsLen; i++ {
			if err := skipArgument(d); err != nil {
				return err
			}
		}
		return nil
	case commandTransferObjectsTag:
		n, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := skipArgument(d); err != nil {
				return err
			}
		}
		return skipArgument(d)
	case commandSplitCoinsTag:
		if err := skipArgument(d); err != nil {
			return err
		}
		n, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := skipArgument(d); err != nil {
				return err
			}
		}
		return nil
	case commandPublishTag:
		modulesLen, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < modulesLen; i++ {
			if _, err := d.ReadBytes(); err != nil {
				return err
			}
		}
		depsLen, err := d.ReadULEB128()
		if err != nil {
			return err
		}
		for i := uint64(0); i < depsLen; i++ {
			if err := d.Skip(sui.AddressSize); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Wrapf(errs.ErrSerialization, "unsupported Command variant %d", tag)
	}
}
