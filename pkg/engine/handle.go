// Package engine implements MiningEngine from spec.md §4.4: the parallel
// search loop that mutates a transaction template's nonce field,
// recomputes the transaction digest, derives candidate object IDs, and
// tests each against a PrefixMatcher. Grounded on
// _examples/ScreamingHawk-erc2470-address-miner/pkg/miner's worker-pool
// coordinator shape and original_source/cli/src/gas_coin_miner.rs's
// atomic-counter work partitioning.
package engine

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/suivanity/miner/internal/config"
	"github.com/suivanity/miner/internal/logger"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/types"
)

// intentPrefix is the fixed 3-byte intent scope prepended before hashing
// a transaction's digest — spec.md §4.4.
var intentPrefix = [3]byte{0, 0, 0}

// progressWindow is the reducer's emission interval.
const progressWindow = 500 * time.Millisecond

// ewmaAlpha weights the reducer's exponentially-weighted hashrate.
const ewmaAlpha = 0.3

// EngineHandle owns the shared mutable state of one mining job: the
// atomic nonce counter, the cancel flag, and the channels connecting
// workers to the progress reducer. Nothing here lives at process scope —
// a new EngineHandle is constructed per job and discarded after Run
// returns, per spec.md §9.
type EngineHandle struct {
	template types.Template
	matcher  matcher.PrefixMatcher
	workers  int
	batch    uint64

	nonceCounter atomic.Uint64
	cancelFlag   atomic.Bool

	tickCh   chan types.ProgressTick
	reportCh chan types.ProgressReport
	doneCh   chan struct{}

	log *logger.Logger
}

// New builds an EngineHandle for one job. workers<=0 resolves to the
// number of logical CPUs, matching spec.md §4.4's parallelism model.
func New(tmpl types.Template, m matcher.PrefixMatcher, workers int, startNonce uint64, log *logger.Logger) *EngineHandle {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	h := &EngineHandle{
		template: tmpl,
		matcher:  m,
		workers:  workers,
		batch:    config.DefaultBatchSize,
		tickCh:   make(chan types.ProgressTick, workers*4),
		reportCh: make(chan types.ProgressReport, 8),
		doneCh:   make(chan struct{}),
		log:      log,
	}
	h.nonceCounter.Store(startNonce)
	return h
}

// Progress returns the channel the driver reads ProgressReports from,
// emitted roughly every 500ms.
func (h *EngineHandle) Progress() <-chan types.ProgressReport {
	return h.reportCh
}

// Cancel sets the shared cancel flag; workers observe it at their next
// batch boundary and stop.
func (h *EngineHandle) Cancel() {
	h.cancelFlag.Store(true)
}

// LastNonce returns the high-water mark of the shared nonce counter,
// enabling --start-nonce resume after a cancellation.
func (h *EngineHandle) LastNonce() uint64 {
	return h.nonceCounter.Load()
}

// Run spawns the worker pool and the progress reducer, then blocks until
// one of: a hit is found, the cancel flag is set externally, or a worker
// reports an internal error (surfaced, per spec.md §4.4's failure
// semantics, as errs.ErrInternal). Returns (hit, nil) on success, (nil,
// nil) on a clean cancellation with no hit, or (nil, err) on failure.
func (h *EngineHandle) Run() (*types.MiningHit, error) {
	start := time.Now()
	hitCh := make(chan types.MiningHit, 1)
	errCh := make(chan error, h.workers)

	if h.log != nil {
		h.log.Debugf("mining started: %d workers, batch size %d, start nonce %d", h.workers, h.batch, h.nonceCounter.Load())
	}

	var wg sync.WaitGroup
	for i := 0; i < h.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			h.runWorker(workerID, hitCh, errCh)
		}(i)
	}

	reducerDone := make(chan struct{})
	go func() {
		defer close(reducerDone)
		h.runReducer()
	}()

	wg.Wait()
	close(h.doneCh)
	<-reducerDone

	select {
	case err := <-errCh:
		if h.log != nil {
			h.log.Errorf("mining job failed: %v", err)
		}
		return nil, err
	default:
	}

	select {
	case hit := <-hitCh:
		hit.Elapsed = time.Since(start)
		if h.log != nil {
			h.log.Debugf("mining hit at nonce %d after %s", hit.Nonce, hit.Elapsed)
		}
		return &hit, nil
	default:
		return nil, nil
	}
}

// runReducer aggregates ProgressTicks and emits a ProgressReport every
// progressWindow, computing an EWMA hashrate per spec.md §4.4.
func (h *EngineHandle) runReducer() {
	ticker := time.NewTicker(progressWindow)
	defer ticker.Stop()

	var total uint64
	var lastTotal uint64
	var hashrate float64
	lastTick := time.Now()

	emit := func() {
		now := time.Now()
		elapsed := now.Sub(lastTick).Seconds()
		lastTick = now
		if elapsed > 0 {
			instantaneous := float64(total-lastTotal) / elapsed
			hashrate = ewmaAlpha*instantaneous + (1-ewmaAlpha)*hashrate
		}
		lastTotal = total

		report := types.ProgressReport{
			Attempts:  total,
			Hashrate:  hashrate,
			LastNonce: h.nonceCounter.Load(),
		}
		select {
		case h.reportCh <- report:
		default:
		}
	}

	for {
		select {
		case tick, ok := <-h.tickCh:
			if !ok {
				return
			}
			total += tick.DeltaAttempts
		case <-ticker.C:
			emit()
		case <-h.doneCh:
			emit()
			return
		}
	}
}
