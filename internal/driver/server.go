package driver

import (
	"encoding/base64"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/suivanity/miner/internal/config"
	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/internal/logger"
	"github.com/suivanity/miner/internal/protocol"
	"github.com/suivanity/miner/internal/sui"
	"github.com/suivanity/miner/pkg/engine"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/types"
)

// protocolVersion is reported in the "connected" handshake frame.
const protocolVersion = "1"

// Server serializes every job behind activeMu: spec.md §4.5 mandates
// exactly one mining job runs at a time, across all connections.
type Server struct {
	addr string
	log  *logger.Logger

	activeMu sync.Mutex
	active   *engine.EngineHandle

	store *config.Store
}

// NewServer builds a Server bound to addr (e.g. "127.0.0.1:9876"); spec.md
// §4.5 requires binding only to loopback, enforced by the caller passing
// a loopback address (see cmd/.../main.go).
func NewServer(addr string, log *logger.Logger) *Server {
	return &Server{addr: addr, log: log}
}

// UseConfigStore attaches a config.Store whose fsnotify-backed Defaults
// are consulted for every new job (jobs already running keep the
// Defaults snapshot they started with). Per SPEC_FULL.md §2.3, this is
// how the server driver hot-reloads defaults from --config.
func (s *Server) UseConfigStore(store *config.Store) {
	s.store = store
}

// defaults returns the Store's current snapshot, or spec.md's hardcoded
// defaults when no config file was supplied.
func (s *Server) defaults() config.Defaults {
	if s.store == nil {
		return config.Defaults{GasBudget: config.DefaultGasBudget, GasPrice: config.DefaultGasPrice}
	}
	return s.store.Snapshot()
}

// ListenAndServe binds s.addr and serves it until the listener is closed
// or an unrecoverable accept error occurs.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(errs.ErrInternal, "%v: listening on %s", err, s.addr)
	}
	defer ln.Close()
	return s.Serve(ln)
}

// Serve accepts connections from an already-bound listener until it is
// closed. Split out from ListenAndServe so tests can bind to an
// ephemeral loopback port (":0") and learn the real address.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Printf("server listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			return errors.Wrapf(errs.ErrInternal, "%v: accept", err)
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	log := s.log.With("remote", conn.RemoteAddr().String())

	r := protocol.NewReader(conn)
	w := protocol.NewWriter(conn)

	if err := w.WriteMessage(protocol.ServerMessage{Type: protocol.TypeConnected, Version: protocolVersion}); err != nil {
		log.Errorf("writing connected frame: %v", err)
		return
	}

	for {
		msg, err := r.ReadMessage()
		if err != nil {
			if err != io.EOF {
				log.Errorf("reading client frame: %v", err)
			}
			return
		}

		if err := s.dispatch(msg, w, log); err != nil {
			log.Errorf("dispatch error: %v", err)
			_ = w.WriteMessage(protocol.ErrorMessage(err))
		}
	}
}

func (s *Server) dispatch(msg protocol.ClientMessage, w *protocol.Writer, log *logger.Logger) error {
	switch msg.Type {
	case protocol.TypeStartPackageMining:
		return s.startJob(msg, w, log, types.ModePackagePublish)
	case protocol.TypeStartGasCoinMining:
		return s.startJob(msg, w, log, types.ModeSplitCoin)
	case protocol.TypeStartMoveCallMining:
		return s.startJob(msg, w, log, types.ModeGenericCall)
	case protocol.TypeStopMining:
		return s.stopJob(w)
	default:
		return errors.Wrapf(errs.ErrInvalidInput, "unknown message type %q", msg.Type)
	}
}

func (s *Server) startJob(msg protocol.ClientMessage, w *protocol.Writer, log *logger.Logger, mode types.Mode) error {
	s.activeMu.Lock()
	if s.active != nil {
		s.activeMu.Unlock()
		return errors.Wrap(errs.ErrJobBusy, "a mining job is already running")
	}

	job, err := jobFromMessage(msg, mode, s.defaults())
	if err != nil {
		s.activeMu.Unlock()
		return err
	}

	tmpl, err := buildTemplate(job)
	if err != nil {
		s.activeMu.Unlock()
		return err
	}
	m, err := matcher.New(job.Prefix)
	if err != nil {
		s.activeMu.Unlock()
		return err
	}

	handle, resultCh := engine.StartAsync(tmpl, m, job.Workers, job.StartNonce, log)
	s.active = handle
	s.activeMu.Unlock()

	if err := w.WriteMessage(protocol.ServerMessage{
		Type:              protocol.TypeMiningStarted,
		Mode:              mode.String(),
		Prefix:            job.Prefix,
		Difficulty:        len(job.Prefix),
		EstimatedAttempts: m.EstimatedAttempts(),
		Threads:           effectiveWorkers(job.Workers),
	}); err != nil {
		return err
	}

	go s.pumpProgress(handle, w)
	go s.awaitResult(handle, resultCh, w, mode)
	return nil
}

func (s *Server) stopJob(w *protocol.Writer) error {
	s.activeMu.Lock()
	h := s.active
	s.activeMu.Unlock()
	if h == nil {
		return w.WriteMessage(protocol.ServerMessage{Type: protocol.TypeStopped, LastNonce: 0})
	}
	h.Cancel()
	return nil
}

func (s *Server) pumpProgress(h *engine.EngineHandle, w *protocol.Writer) {
	for report := range h.Progress() {
		_ = w.WriteMessage(protocol.ServerMessage{
			Type:      protocol.TypeProgress,
			Attempts:  report.Attempts,
			Hashrate:  report.Hashrate,
			LastNonce: report.LastNonce,
		})
	}
}

func (s *Server) awaitResult(handle *engine.EngineHandle, resultCh <-chan engine.RunResult, w *protocol.Writer, mode types.Mode) {
	result := <-resultCh

	s.activeMu.Lock()
	s.active = nil
	s.activeMu.Unlock()

	if result.Err != nil {
		_ = w.WriteMessage(protocol.ErrorMessage(result.Err))
		return
	}
	if result.Hit == nil {
		_ = w.WriteMessage(protocol.ServerMessage{Type: protocol.TypeStopped, LastNonce: handle.LastNonce()})
		return
	}
	// the engine writes the nonce itself into the gas_budget field, so the
	// found transaction's budget is the hit's nonce.
	_ = w.WriteMessage(protocol.HitMessage(mode, *result.Hit, result.Hit.Nonce))
}

// jobFromMessage decodes a start_* ClientMessage into a types.MiningJob,
// per spec.md §6's field-name mirroring of §3's data model. Fields the
// client leaves at zero fall back to defaults (a config-file snapshot,
// or spec.md's hardcoded values when none was supplied).
func jobFromMessage(msg protocol.ClientMessage, mode types.Mode, defaults config.Defaults) (types.MiningJob, error) {
	job := types.MiningJob{
		Mode:       mode,
		Prefix:     msg.Prefix,
		Workers:    msg.Threads,
		StartNonce: msg.StartNonce,
		GasPrice:   msg.GasPrice,
		GasBudget:  msg.GasBudget,
	}
	if job.Workers == 0 {
		job.Workers = defaults.Threads
	}
	if job.GasPrice == 0 {
		job.GasPrice = defaults.GasPrice
	}
	if job.GasBudget == 0 {
		job.GasBudget = defaults.GasBudget
	}

	sender, err := sui.ParseAddress(msg.Sender)
	if err != nil {
		return types.MiningJob{}, err
	}

	var gasObject sui.GasObjectRef
	if msg.GasObjectID != "" {
		id, err := sui.ParseObjectID(msg.GasObjectID)
		if err != nil {
			return types.MiningJob{}, err
		}
		digest, err := sui.ParseObjectDigestBase58(msg.GasObjectDigest)
		if err != nil {
			return types.MiningJob{}, err
		}
		gasObject = sui.GasObjectRef{ID: id, Version: msg.GasObjectVersion, Digest: digest}
	}

	switch mode {
	case types.ModePackagePublish:
		modules := make([][]byte, 0, len(msg.ModulesBase64))
		for _, m := range msg.ModulesBase64 {
			b, err := base64.StdEncoding.DecodeString(m)
			if err != nil {
				return types.MiningJob{}, errors.Wrapf(errs.ErrInvalidInput, "%v: malformed modules_base64 entry", err)
			}
			modules = append(modules, b)
		}
		job.Publish = &types.PublishInput{Sender: sender, Modules: modules, GasObject: gasObject}

	case types.ModeSplitCoin:
		job.SplitCoin = &types.SplitCoinInput{Sender: sender, GasObject: gasObject, SplitAmounts: msg.SplitAmounts}

	case types.ModeGenericCall:
		in := &types.GenericCallInput{Sender: sender, GasObject: gasObject, TargetIndex: msg.ObjectIndex}
		if msg.TxBase64 != "" {
			in.RawTxBase64 = msg.TxBase64
		} else {
			pkg, err := sui.ParseAddress(msg.Package)
			if err != nil {
				return types.MiningJob{}, err
			}
			in.Target = types.CallTarget{Package: pkg, Module: msg.Module, Function: msg.Function}
			in.TypeArgs = msg.TypeArgs
			in.Args = make([]types.CallArg, 0, len(msg.Args))
			for i, a := range msg.Args {
				arg, err := callArgFromWire(a)
				if err != nil {
					return types.MiningJob{}, errors.Wrapf(err, "arg %d", i)
				}
				in.Args = append(in.Args, arg)
			}
		}
		job.GenericCall = in
	}

	return job, nil
}

func callArgFromWire(a protocol.CallArgWire) (types.CallArg, error) {
	switch a.Kind {
	case "string":
		return types.CallArg{Kind: types.CallArgString, Str: a.Str}, nil
	case "address":
		addr, err := sui.ParseAddress(a.Addr)
		if err != nil {
			return types.CallArg{}, err
		}
		return types.CallArg{Kind: types.CallArgAddress, Addr: addr}, nil
	case "bool":
		return types.CallArg{Kind: types.CallArgBool, Bool: a.Bool}, nil
	case "number":
		return types.CallArg{Kind: types.CallArgNumber, Number: a.Number}, nil
	case "object":
		id, err := sui.ParseObjectID(a.ObjectID)
		if err != nil {
			return types.CallArg{}, err
		}
		digest, err := sui.ParseObjectDigestBase58(a.ObjectDigest)
		if err != nil {
			return types.CallArg{}, err
		}
		return types.CallArg{Kind: types.CallArgObject, Object: sui.GasObjectRef{ID: id, Version: a.ObjectVersion, Digest: digest}}, nil
	default:
		return types.CallArg{}, errors.Wrapf(errs.ErrInvalidInput, "unknown call arg kind %q", a.Kind)
	}
}
