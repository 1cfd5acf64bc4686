package txflow

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
)

// State names the lifecycle phases of the single in-flight transaction.
type State string

const (
	StateIdle                 State = "idle"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSuccess              State = "success"
	StateError                State = "error"
)

// Notifier is invoked when a transaction confirms. Failures are swallowed:
// notification must never affect the lifecycle.
type Notifier interface {
	TransactionConfirmed()
}

// Snapshot is a point-in-time view of the machine.
type Snapshot struct {
	State        State    `json:"state"`
	Hash         string   `json:"hash,omitempty"`
	Recipient    string   `json:"recipient,omitempty"`
	AmountWei    *big.Int `json:"amount_wei,omitempty"`
	ErrorMessage string   `json:"error,omitempty"`
}

// resetDelay is how long Success and Error are displayed before the machine
// returns to Idle on its own.
const resetDelay = 5 * time.Second

// Machine tracks one transaction at a time from submission through
// confirmation. Terminal states schedule an automatic return to Idle; a
// generation counter keeps stale timers from clobbering a newer flow.
type Machine struct {
	mu        sync.Mutex
	state     State
	hash      string
	recipient string
	amountWei *big.Int
	errMsg    string
	gen       uint64

	schedule func(d time.Duration, fn func())
	sink     *consolelog.Sink
	explorer func(hash string) string
	notifier Notifier
}

// Option configures a Machine.
type Option func(*Machine)

// WithScheduler replaces the reset timer, for tests.
func WithScheduler(schedule func(d time.Duration, fn func())) Option {
	return func(m *Machine) { m.schedule = schedule }
}

// WithSink routes lifecycle log lines into a console sink.
func WithSink(sink *consolelog.Sink) Option {
	return func(m *Machine) { m.sink = sink }
}

// WithExplorer supplies the tx hash to explorer URL mapping for log lines.
func WithExplorer(explorer func(hash string) string) Option {
	return func(m *Machine) { m.explorer = explorer }
}

// WithNotifier registers a best-effort confirmation hook.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		state: StateIdle,
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
		explorer: func(string) string { return "" },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates the recipient and amount and moves Idle to Submitting.
// It returns the parsed amount in wei; actually sending the transaction is
// the caller's job.
func (m *Machine) Submit(recipient, amount string) (*big.Int, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, clierr.New(clierr.CodeValidation, "recipient address is required")
	}
	wei, err := contracts.ParseDecimal(strings.TrimSpace(amount), 18)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeValidation, "invalid amount", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return nil, clierr.New(clierr.CodeValidation, "a transaction is already in progress")
	}
	m.state = StateSubmitting
	m.recipient = recipient
	m.amountWei = wei
	m.hash = ""
	m.errMsg = ""
	return new(big.Int).Set(wei), nil
}

// HashReceived records the submitted hash and moves to AwaitingConfirmation.
// Ignored outside Submitting.
func (m *Machine) HashReceived(hash string) {
	m.mu.Lock()
	if m.state != StateSubmitting || hash == "" {
		m.mu.Unlock()
		return
	}
	m.state = StateAwaitingConfirmation
	m.hash = hash
	sink, explorer := m.sink, m.explorer
	m.mu.Unlock()

	if sink != nil {
		sink.AppendTx("Transaction submitted: "+hash, consolelog.SeverityInfo, hash, explorer(hash), false)
	}
}

// ReceiptConfirmed resolves the awaited transaction. Events for any other
// hash are ignored; they belong to an abandoned flow.
func (m *Machine) ReceiptConfirmed(hash string, ok bool) {
	m.mu.Lock()
	if m.state != StateAwaitingConfirmation || hash != m.hash {
		m.mu.Unlock()
		return
	}
	var gen uint64
	if ok {
		m.state = StateSuccess
	} else {
		m.state = StateError
		m.errMsg = "transaction reverted on-chain"
	}
	m.gen++
	gen = m.gen
	sink, explorer, notifier, schedule := m.sink, m.explorer, m.notifier, m.schedule
	m.mu.Unlock()

	if sink != nil {
		if ok {
			sink.AppendTx("Transaction confirmed: "+hash, consolelog.SeveritySuccess, hash, explorer(hash), false)
		} else {
			sink.AppendTx("Transaction reverted: "+hash, consolelog.SeverityError, hash, explorer(hash), false)
		}
	}
	if ok && notifier != nil {
		notifier.TransactionConfirmed()
	}
	schedule(resetDelay, func() { m.resetIfCurrent(gen) })
}

// Fail moves an active flow to Error. A non-empty hash that does not match
// the live transaction is ignored.
func (m *Machine) Fail(hash string, cause error) {
	m.mu.Lock()
	if m.state != StateSubmitting && m.state != StateAwaitingConfirmation {
		m.mu.Unlock()
		return
	}
	if hash != "" && m.hash != "" && hash != m.hash {
		m.mu.Unlock()
		return
	}
	m.state = StateError
	if cause != nil {
		m.errMsg = cause.Error()
	} else {
		m.errMsg = "transaction failed"
	}
	m.gen++
	gen := m.gen
	sink, schedule := m.sink, m.schedule
	msg := m.errMsg
	m.mu.Unlock()

	if sink != nil {
		sink.Append("Transaction failed: "+msg, consolelog.SeverityError)
	}
	schedule(resetDelay, func() { m.resetIfCurrent(gen) })
}

// Cancel abandons the current flow. A transaction that is already on chain
// cannot be cancelled; once AwaitingConfirmation the flow must resolve.
func (m *Machine) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAwaitingConfirmation {
		return clierr.New(clierr.CodeValidation, "transaction already submitted, waiting for confirmation")
	}
	m.resetLocked()
	return nil
}

// Reset forces the machine back to Idle regardless of state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetIfCurrent(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.state = StateIdle
	m.hash = ""
	m.recipient = ""
	m.amountWei = nil
	m.errMsg = ""
	m.gen++
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a copy of the machine's state and transaction fields.
func (m *Machine) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State:        m.state,
		Hash:         m.hash,
		Recipient:    m.recipient,
		ErrorMessage: m.errMsg,
	}
	if m.amountWei != nil {
		snap.AmountWei = new(big.Int).Set(m.amountWei)
	}
	return snap
}
