// Package gpu defines the Backend interface a future OpenCL/GPU kernel
// dispatcher would implement. spec.md §1 acknowledges such a backend as
// a prospective extension of the CPU mining loop in pkg/engine, but its
// host-side dispatcher is explicitly out of scope for this module — the
// Stub below exists only so callers (e.g. a --backend flag) have a real
// type to select and fail against, not a hand-rolled error string.
package gpu

import (
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/types"
)

// Backend mines one job using device-specific hardware, mirroring the
// CPU loop's contract: given a template and a matcher, search nonces
// starting at startNonce and return the first hit.
type Backend interface {
	Name() string
	Run(tmpl types.Template, m matcher.PrefixMatcher, startNonce uint64) (*types.MiningHit, error)
}

// Stub is the only Backend this module ships; every call fails with
// errs.ErrNotImplemented. A real OpenCL backend would replace Run's body
// with a kernel dispatch that derives object IDs the same way
// pkg/derive.Deriver does, batching candidate nonces across device work
// items instead of goroutines.
type Stub struct{}

// Name identifies this backend in logs and CLI output.
func (Stub) Name() string { return "stub" }

// Run always fails; no GPU dispatch is implemented.
func (Stub) Run(types.Template, matcher.PrefixMatcher, uint64) (*types.MiningHit, error) {
	return nil, errs.ErrNotImplemented
}
