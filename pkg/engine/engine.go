package engine

import (
	"github.com/suivanity/miner/internal/logger"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/types"
)

// RunResult bundles the outcome of an asynchronous job: Hit is nil on a
// clean cancellation, Err is non-nil only on spec.md §7's SerializationError
// / InternalError paths.
type RunResult struct {
	Hit *types.MiningHit
	Err error
}

// StartAsync builds an EngineHandle for one job and begins Run in a
// background goroutine immediately, returning the handle (so a driver can
// call Cancel and LastNonce concurrently, e.g. on SIGINT) and a channel
// that receives exactly one RunResult when the job finishes.
func StartAsync(tmpl types.Template, m matcher.PrefixMatcher, workers int, startNonce uint64, log *logger.Logger) (*EngineHandle, <-chan RunResult) {
	handle := New(tmpl, m, workers, startNonce, log)
	resultCh := make(chan RunResult, 1)

	go func() {
		hit, err := handle.Run()
		resultCh <- RunResult{Hit: hit, Err: err}
	}()

	return handle, resultCh
}
