// Package driver wires pkg/template, pkg/matcher, and pkg/engine into the
// two drivers spec.md §4.5 names: a blocking single-shot CLI run and a
// long-running loopback server. Grounded on
// ScreamingHawk-erc2470-address-miner's cmd/main.go signal-handling
// shape (select over a result channel and an os/signal channel).
package driver

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/logger"
	"github.com/suivanity/miner/pkg/engine"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/template"
	"github.com/suivanity/miner/pkg/types"
)

// RunCLI builds a template for job, runs it to completion or interrupt,
// logs the outcome, and returns the process exit code spec.md §6
// mandates (0 hit, 1 usage error, 2 runtime error, 130 interrupted).
func RunCLI(job types.MiningJob, log *logger.Logger) int {
	tmpl, err := buildTemplate(job)
	if err != nil {
		log.Errorf("%v", err)
		return errs.ExitCode(err)
	}

	m, err := matcher.New(job.Prefix)
	if err != nil {
		log.Errorf("%v", err)
		return errs.ExitCode(err)
	}

	log.Printf("mining started: mode=%s prefix=%s difficulty=%d estimated_attempts=%d workers=%d",
		job.Mode, job.Prefix, len(job.Prefix), m.EstimatedAttempts(), effectiveWorkers(job.Workers))

	handle, resultCh := engine.StartAsync(tmpl, m, job.Workers, job.StartNonce, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go reportProgress(handle, log)

	select {
	case result := <-resultCh:
		if result.Err != nil {
			log.Errorf("mining failed: %v", result.Err)
			return errs.ExitCode(result.Err)
		}
		if result.Hit == nil {
			log.Printf("mining stopped, no hit. last_nonce=%d", handle.LastNonce())
			return errs.ExitCode(errors.Wrap(errs.ErrCancelled, "stopped with no hit"))
		}
		printHit(log, job.Mode, *result.Hit)
		return 0

	case <-sigCh:
		log.Printf("interrupt received, stopping workers...")
		handle.Cancel()
		<-resultCh
		fmt.Printf("last_nonce=%d\n", handle.LastNonce())
		log.Printf("stopped by interrupt. last_nonce=%d (resume with --start-nonce=%d)", handle.LastNonce(), handle.LastNonce())
		return errs.ExitCode(errors.Wrap(errs.ErrCancelled, "interrupted"))
	}
}

func reportProgress(h *engine.EngineHandle, log *logger.Logger) {
	for report := range h.Progress() {
		log.Debugf("progress: attempts=%d hashrate=%.0f/s last_nonce=%d", report.Attempts, report.Hashrate, report.LastNonce)
	}
}

func printHit(log *logger.Logger, mode types.Mode, hit types.MiningHit) {
	log.Printf("hit found: mode=%s nonce=%d object_index=%d elapsed=%s", mode, hit.Nonce, hit.ObjectIndex, hit.Elapsed)
	fmt.Printf("object_id=%x\n", hit.ObjectID)
	fmt.Printf("tx_digest=%x\n", hit.TxDigest)
	fmt.Printf("nonce=%d\n", hit.Nonce)
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

// buildTemplate dispatches to the builder matching job.Mode.
func buildTemplate(job types.MiningJob) (types.Template, error) {
	switch job.Mode {
	case types.ModePackagePublish:
		if job.Publish == nil {
			return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "package mode requires --module, --sender, --gas-object")
		}
		return template.BuildPackagePublish(*job.Publish, job.GasPrice, job.GasBudget)
	case types.ModeSplitCoin:
		if job.SplitCoin == nil {
			return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "gas mode requires --split-amounts, --sender, --gas-object")
		}
		return template.BuildSplitCoin(*job.SplitCoin, job.GasPrice, job.GasBudget)
	case types.ModeGenericCall:
		if job.GenericCall == nil {
			return types.Template{}, errors.Wrap(errs.ErrInvalidInput, "move mode requires --tx-base64 or a call-builder form, plus --object-index")
		}
		return template.BuildGenericCall(*job.GenericCall, job.GasPrice, job.GasBudget)
	default:
		return types.Template{}, errors.Wrapf(errs.ErrInvalidInput, "unknown mode %v", job.Mode)
	}
}
