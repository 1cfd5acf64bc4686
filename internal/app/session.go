package app

import (
	"context"

	"github.com/openwallet-labs/defi-agent/internal/backend"
	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/history"
	"github.com/openwallet-labs/defi-agent/internal/httpx"
	"github.com/openwallet-labs/defi-agent/internal/interp"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
	"github.com/openwallet-labs/defi-agent/internal/swap"
	"github.com/openwallet-labs/defi-agent/internal/txflow"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
	"github.com/openwallet-labs/defi-agent/internal/wallet/signer"
)

// session bundles the live objects one invocation shares: the console log,
// the tracked wallet, the verb interpreter, and the send state machine.
type session struct {
	sink     *consolelog.Sink
	registry *netreg.Registry
	tracker  *wallet.Tracker
	ledger   *ledger.Ledger
	interp   *interp.Interpreter
	machine  *txflow.Machine
	backend  *backend.Client
	history  *history.Store
	rpc      *wallet.RPCProvider
	mock     bool
}

func (s *session) close() {
	if s.history != nil {
		_ = s.history.Close()
	}
	if s.rpc != nil {
		s.rpc.Close()
	}
}

// connect establishes the wallet session and seeds the console log.
func (s *session) connect(ctx context.Context) error {
	_, err := s.tracker.Connect(ctx)
	return err
}

// ensureSession wires the session once per invocation. Mock mode uses the
// simulated wallet provider; real mode needs a local signer and dials the
// chain lazily.
func (s *runtimeState) ensureSession() (*session, error) {
	if s.session != nil {
		return s.session, nil
	}
	settings := s.settings

	sink := consolelog.NewSink()
	registry := netreg.Default()
	led := ledger.NewDefault()

	hist, err := history.Open(settings.HistoryPath, settings.HistoryLockPath)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "open history store", err)
	}

	sess := &session{
		sink:     sink,
		registry: registry,
		ledger:   led,
		history:  hist,
		mock:     settings.MockMode,
	}

	var provider wallet.Provider
	if settings.MockMode {
		provider = wallet.NewMockProvider(settings.ChainID)
	} else {
		txSigner, err := signer.FromEnv()
		if err != nil {
			sess.close()
			return nil, err
		}
		sess.rpc = wallet.NewRPCProvider(registry, txSigner, settings.ChainID, settings.RPCURL, wallet.DefaultRPCOptions())
		provider = sess.rpc
	}
	sess.tracker = wallet.NewTracker(provider, registry, sink, settings.ChainID)

	sess.backend = backend.New(httpx.New(settings.Timeout, settings.Retries), settings.BackendURL)

	var exec interp.Executor
	if settings.MockMode {
		exec = interp.NewMockExecutor(sink, sess.tracker, led, hist, settings.MockDelay)
	} else {
		var engine *swap.Engine
		network := registry.Lookup(settings.ChainID)
		if contracts.HasLiveSwapRoute(network.ChainID) && network.HasSwapRouter() && network.HasStableCoin() {
			engine, _ = swap.NewEngine(sess.rpc, sess.rpc, network)
		}
		exec = interp.NewRealExecutor(sess.backend, engine, sink, sess.tracker, led, hist)
	}
	sess.interp = interp.New(sink, sess.tracker, led, exec, settings.MockMode)

	sess.machine = txflow.NewMachine(
		txflow.WithSink(sink),
		txflow.WithExplorer(func(hash string) string {
			return sess.tracker.Network().ExplorerTxURL(hash)
		}),
	)

	sink.Append("AI agent console initialized", consolelog.SeverityInit)
	if settings.MockMode {
		sink.Append("Simulation mode active: no transaction leaves this machine", consolelog.SeverityInit)
	}

	s.session = sess
	return sess, nil
}
