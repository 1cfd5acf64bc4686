// Package ledger tracks the session's spendable counters: AI credits and
// the agent wallet balance. Mutations are optimistic; a failed backend call
// rolls them back.
package ledger

import (
	"math/big"
	"strings"
	"sync"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
)

// Defaults used when the backend is unreachable and the session falls back
// to simulated data.
const (
	DefaultCredits = 100
	DefaultBalance = "1000"
)

// Ledger holds the per-session counters behind a mutex so the console loop
// and background refreshes can share it.
type Ledger struct {
	mu      sync.Mutex
	credits int
	balance *big.Rat
}

func New(credits int, balance string) (*Ledger, error) {
	bal, ok := new(big.Rat).SetString(strings.TrimSpace(balance))
	if !ok {
		return nil, clierr.New(clierr.CodeValidation, "invalid balance "+balance)
	}
	return &Ledger{credits: credits, balance: bal}, nil
}

// NewDefault seeds the simulated-session counters.
func NewDefault() *Ledger {
	l, _ := New(DefaultCredits, DefaultBalance)
	return l
}

func (l *Ledger) Credits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits
}

// Balance renders the agent balance as a plain decimal string.
func (l *Ledger) Balance() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return formatRat(l.balance)
}

// SetCredits replaces the credit counter, typically from a backend refresh.
func (l *Ledger) SetCredits(credits int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credits = credits
}

// SetBalance replaces the balance counter from an authoritative source.
func (l *Ledger) SetBalance(balance string) error {
	bal, ok := new(big.Rat).SetString(strings.TrimSpace(balance))
	if !ok {
		return clierr.New(clierr.CodeValidation, "invalid balance "+balance)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = bal
	return nil
}

// AddCredits applies a signed credit delta, clamping at zero.
func (l *Ledger) AddCredits(delta int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credits += delta
	if l.credits < 0 {
		l.credits = 0
	}
	return l.credits
}

// SpendCredits deducts credits, failing without mutation when the balance
// is insufficient.
func (l *Ledger) SpendCredits(n int) error {
	if n <= 0 {
		return clierr.New(clierr.CodeValidation, "credit spend must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.credits < n {
		return clierr.New(clierr.CodeValidation, "insufficient credits")
	}
	l.credits -= n
	return nil
}

// Deposit adds a decimal amount to the agent balance.
func (l *Ledger) Deposit(amount string) error {
	return l.adjust(amount, 1)
}

// Withdraw subtracts a decimal amount, failing without mutation when the
// balance would go negative.
func (l *Ledger) Withdraw(amount string) error {
	return l.adjust(amount, -1)
}

func (l *Ledger) adjust(amount string, sign int) error {
	delta, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok || delta.Sign() <= 0 {
		return clierr.New(clierr.CodeValidation, "invalid amount "+amount)
	}
	if sign < 0 {
		delta.Neg(delta)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	next := new(big.Rat).Add(l.balance, delta)
	if next.Sign() < 0 {
		return clierr.New(clierr.CodeValidation, "insufficient agent balance")
	}
	l.balance = next
	return nil
}

func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	s := r.FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
