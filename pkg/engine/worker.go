package engine

import (
	"encoding/binary"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/hashcore"
	"github.com/suivanity/miner/pkg/derive"
	"github.com/suivanity/miner/pkg/types"
)

// runWorker is one OS-thread-backed worker's hot loop, grounded on
// spec.md §4.4's per-batch pseudocode. It owns a private copy of the
// template bytes (cloned once via copier, never shared with other
// workers) and consumes nonces from the shared atomic counter in batches
// of h.batch.
func (h *EngineHandle) runWorker(workerID int, hitCh chan<- types.MiningHit, errCh chan<- error) {
	defer func() {
		if r := recover(); r != nil {
			h.cancelFlag.Store(true)
			select {
			case errCh <- workerPanicError(r):
			default:
			}
		}
	}()

	// Each worker clones the prototype template into its own struct —
	// including its byte buffer — rather than sharing h.template, per
	// spec.md §5's "tx_bytes per worker: exclusive to that worker".
	// copier's same-type fast path is a plain struct assignment, which
	// would alias Bytes across workers; DeepCopy forces an actual copy.
	var private types.Template
	if err := copier.CopyWithOption(&private, &h.template, copier.Option{DeepCopy: true}); err != nil {
		panic(err)
	}
	localBytes := private.Bytes

	offset := h.template.NonceOffset
	indices := h.template.Derivation.Scheme.Indices()
	deriver := derive.NewDeriver(h.template.Derivation.Algorithm)
	digestHash := hashcore.NewBlake2b256()

	var txDigest [32]byte
	var candidate [32]byte

	for {
		if h.cancelFlag.Load() {
			return
		}

		base := h.nonceCounter.Add(h.batch) - h.batch

		for k := uint64(0); k < h.batch; k++ {
			nonce := base + k
			binary.LittleEndian.PutUint64(localBytes[offset:offset+8], nonce)

			hashcore.Blake2b256Concat(digestHash, &txDigest, intentPrefix[:], localBytes)

			for _, idx := range indices {
				deriver.Derive(txDigest, idx, &candidate)
				if !h.matcher.Matches(candidate[:]) {
					continue
				}
				if !h.cancelFlag.CompareAndSwap(false, true) {
					return
				}

				hitBytes := make([]byte, len(localBytes))
				copy(hitBytes, localBytes)

				select {
				case hitCh <- types.MiningHit{
					Nonce:       nonce,
					ObjectIndex: idx,
					TxDigest:    txDigest,
					ObjectID:    candidate,
					TxBytes:     hitBytes,
				}:
				default:
				}
				return
			}
		}

		select {
		case h.tickCh <- types.ProgressTick{WorkerID: workerID, DeltaAttempts: h.batch}:
		default:
			// bounded channel full: drop this tick rather than stall the
			// hot loop, per spec.md §5.
		}

		if h.cancelFlag.Load() {
			return
		}
	}
}

type panicError struct {
	value interface{}
}

func (e panicError) Error() string {
	return "mining worker panicked: " + toString(e.value)
}

func workerPanicError(v interface{}) error {
	return errors.Wrap(errs.ErrInternal, panicError{value: v}.Error())
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic value"
}
