// Package errs defines the closed set of error kinds the mining core can
// surface, per the error taxonomy in spec.md §7. Call sites wrap one of
// these sentinels with context via github.com/pkg/errors so a driver can
// still recover the root kind with errors.Is/errors.Cause.
package errs

import "github.com/pkg/errors"

var (
	// ErrInvalidPrefix covers an empty, too-long, or non-hex prefix.
	ErrInvalidPrefix = errors.New("invalid prefix")

	// ErrInvalidInput covers malformed sender/object-id/base64, an empty
	// module list, or a zero split amount.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSerialization signals a BCS round-trip bug; the builder
	// self-check should make this unreachable in practice.
	ErrSerialization = errors.New("serialization error")

	// ErrJobBusy is returned by the server when a start_* message arrives
	// while a job is already running.
	ErrJobBusy = errors.New("a mining job is already running")

	// ErrCancelled is a clean stop, not a failure.
	ErrCancelled = errors.New("mining cancelled")

	// ErrInternal covers a worker panic or other unreachable state.
	ErrInternal = errors.New("internal error")

	// ErrNotImplemented is returned by backends acknowledged but not
	// required by the core (see pkg/gpu).
	ErrNotImplemented = errors.New("not implemented")
)

// ExitCode maps an error produced by the core to the CLI exit code
// mandated by spec.md §6 (0 = hit, 1 = usage error, 2 = runtime error,
// 130 = interrupted). Pass a nil err for the "hit" case.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch errors.Cause(err) {
	case ErrInvalidPrefix, ErrInvalidInput:
		return 1
	case ErrCancelled:
		return 130
	default:
		return 2
	}
}
