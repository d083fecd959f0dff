// Package sui holds the small, fixed-size value types shared by every
// TemplateBuilder: object IDs, addresses, and the framework package
// addresses every ProgrammableTransaction implicitly depends on. None of
// this is mining-hot-path code — it runs once per job, at template-build
// time.
package sui

import (
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
)

// AddressSize is the byte length of every Sui address and object ID.
const AddressSize = 32

// ObjectID is a 32-byte object identifier.
type ObjectID [AddressSize]byte

// Address is a 32-byte account or package address.
type Address [AddressSize]byte

// ObjectDigest is the 32-byte digest pinning a specific object version.
type ObjectDigest [AddressSize]byte

// MoveStdAddress (0x1) and FrameworkAddress (0x2) are the two well-known
// framework package addresses that a Publish command implicitly depends
// on.
var (
	MoveStdAddress = mustAddressFromU8(1)
	FrameworkAddress = mustAddressFromU8(2)
)

func mustAddressFromU8(last byte) Address {
	var a Address
	a[AddressSize-1] = last
	return a
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (id ObjectID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParseAddress parses a 0x-prefixed (or bare) hex string into a
// left-zero-padded 32-byte address, the same convention Sui CLIs use for
// short addresses like 0x1 and 0x2.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := decodeHexAddress(s)
	if err != nil {
		return a, err
	}
	copy(a[AddressSize-len(b):], b)
	return a, nil
}

// ParseObjectID parses a 0x-prefixed (or bare) hex string into an
// ObjectID. Unlike ParseAddress, object IDs are always exactly 32 bytes
// and are never short-form padded.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	b, err := decodeHexAddress(s)
	if err != nil {
		return id, err
	}
	if len(b) != AddressSize {
		return id, errors.Wrapf(errs.ErrInvalidInput, "object id %q: want %d bytes, got %d", s, AddressSize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func decodeHexAddress(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, errors.Wrapf(errs.ErrInvalidInput, "empty address")
	}
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(errs.ErrInvalidInput, "%v: malformed hex address %q", err, s)
	}
	if len(b) > AddressSize {
		return nil, errors.Wrapf(errs.ErrInvalidInput, "address %q longer than %d bytes", s, AddressSize)
	}
	return b, nil
}

// ParseObjectDigestBase58 decodes a base58check-free base58 digest string
// as used by Sui object digests (e.g. what `sui client objects` prints).
func ParseObjectDigestBase58(s string) (ObjectDigest, error) {
	var d ObjectDigest
	b, err := base58.Decode(s)
	if err != nil {
		return d, errors.Wrapf(errs.ErrInvalidInput, "%v: malformed base58 digest %q", err, s)
	}
	if len(b) != AddressSize {
		return d, errors.Wrapf(errs.ErrInvalidInput, "digest %q: want %d bytes, got %d", s, AddressSize, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Base58 encodes the digest the way Sui tooling displays it.
func (d ObjectDigest) Base58() string {
	return base58.Encode(d[:])
}

// GasObjectRef is the (ID, version, digest) triple pinning a coin or
// other owned object to a specific on-chain state — spec.md §4.2's
// `gas_object` and the `payment` entries of `GasData`.
type GasObjectRef struct {
	ID      ObjectID
	Version uint64
	Digest  ObjectDigest
}
