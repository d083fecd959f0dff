// Package matcher implements the hot-path prefix comparison every mining
// worker runs once per derived object ID: PrefixMatcher from spec.md §4.3,
// grounded on original_source/cli/src/target.rs's TargetChecker.
package matcher

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
)

// MaxPrefixChars is the longest prefix accepted — 64 hex characters, the
// full width of a 32-byte object ID.
const MaxPrefixChars = 64

// PrefixMatcher is an immutable, allocation-free byte-prefix comparator.
// Workers hold a read-only reference; Matches never allocates and never
// branches on the prefix's own bits, only on the fixed has_half_byte flag
// decided once at construction.
type PrefixMatcher struct {
	prefixBytes [32]byte
	fullBytes   int
	hasHalfByte bool
}

// New builds a PrefixMatcher from a user-supplied hex string. The string
// must be 1-64 hex characters; case is ignored. An odd-length prefix's
// final character occupies the high nibble of prefixBytes[fullBytes].
func New(hexPrefix string) (PrefixMatcher, error) {
	var m PrefixMatcher

	n := len(hexPrefix)
	if n == 0 {
		return m, errors.Wrap(errs.ErrInvalidPrefix, "prefix is empty")
	}
	if n > MaxPrefixChars {
		return m, errors.Wrapf(errs.ErrInvalidPrefix, "prefix has %d chars, max %d", n, MaxPrefixChars)
	}

	padded := hexPrefix
	if n%2 == 1 {
		padded = hexPrefix + "0"
	}

	decoded, err := hex.DecodeString(strings.ToLower(padded))
	if err != nil {
		return m, errors.Wrapf(errs.ErrInvalidPrefix, "%v: %q is not valid hex", err, hexPrefix)
	}

	copy(m.prefixBytes[:], decoded)
	m.fullBytes = n / 2
	m.hasHalfByte = n%2 == 1
	return m, nil
}

// Matches reports whether candidate's hex encoding begins with the
// matcher's prefix. candidate must be at least FullBytes()+1 bytes when
// HasHalfByte is set, or at least FullBytes() bytes otherwise — every
// caller in this module passes a fixed 32-byte object ID, which always
// satisfies this.
func (m PrefixMatcher) Matches(candidate []byte) bool {
	for i := 0; i < m.fullBytes; i++ {
		if candidate[i] != m.prefixBytes[i] {
			return false
		}
	}
	if m.hasHalfByte {
		if candidate[m.fullBytes]&0xF0 != m.prefixBytes[m.fullBytes]&0xF0 {
			return false
		}
	}
	return true
}

// FullBytes returns the number of complete bytes compared.
func (m PrefixMatcher) FullBytes() int {
	return m.fullBytes
}

// HasHalfByte reports whether an odd trailing hex character requires a
// high-nibble-only comparison after FullBytes().
func (m PrefixMatcher) HasHalfByte() bool {
	return m.hasHalfByte
}

// Difficulty returns the number of hex characters the prefix specifies.
func (m PrefixMatcher) Difficulty() int {
	d := m.fullBytes * 2
	if m.hasHalfByte {
		d++
	}
	return d
}

// EstimatedAttempts returns 16^difficulty, the expected number of
// candidates to try before a random match, used only for human-readable
// progress estimates — never on the hot path.
func (m PrefixMatcher) EstimatedAttempts() uint64 {
	attempts := uint64(1)
	for i := 0; i < m.Difficulty(); i++ {
		attempts *= 16
	}
	return attempts
}
