package interp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/history"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

// Simulated swap rate: 1 USDC buys this much ETH.
const mockETHPerUSDC = 0.000412

// Reference rates shown on the simulated rate card.
const (
	refUSDCPerETH = "2000"
	refETHPerUSDC = "0.000409"
)

// MockExecutor simulates every verb locally: scripted log phases, optimistic
// counter mutations, no network traffic.
type MockExecutor struct {
	sink    *consolelog.Sink
	tracker *wallet.Tracker
	ledger  *ledger.Ledger
	store   *history.Store
	delay   time.Duration
	sleep   func(time.Duration)
	now     func() time.Time
}

func NewMockExecutor(sink *consolelog.Sink, tracker *wallet.Tracker, led *ledger.Ledger, store *history.Store, delay time.Duration) *MockExecutor {
	return &MockExecutor{
		sink:    sink,
		tracker: tracker,
		ledger:  led,
		store:   store,
		delay:   delay,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// SetSleep overrides the phase delay, for tests.
func (m *MockExecutor) SetSleep(sleep func(time.Duration)) { m.sleep = sleep }

func (m *MockExecutor) pause() {
	if m.delay > 0 {
		m.sleep(m.delay)
	}
}

func (m *MockExecutor) record(verb, token, amount, status string) {
	if m.store == nil {
		return
	}
	network := m.tracker.Network()
	_, _ = m.store.Record(m.tracker.Address(), model.TransactionRecord{
		ChainID:   network.ChainID,
		Network:   network.Name,
		Direction: history.DirectionOutgoing,
		Verb:      verb,
		Token:     token,
		Amount:    amount,
		Status:    status,
		Simulated: true,
	})
}

// submitted logs the middle phase every simulated action passes through.
func (m *MockExecutor) submitted() {
	m.sink.AppendTx("Transaction submitted (simulated)", consolelog.SeverityInfo, "", "", true)
	m.pause()
}

func (m *MockExecutor) Swap(ctx context.Context, amount, token string) (Outcome, error) {
	in, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return Outcome{}, clierr.New(clierr.CodeValidation, "invalid swap amount")
	}
	m.sink.Append("Preparing swap...", consolelog.SeverityProcessing)
	m.sink.Append(fmt.Sprintf("Current rate: 1 USDC = %.6f ETH", mockETHPerUSDC), consolelog.SeverityInfo)
	m.pause()
	m.submitted()

	var msg, out string
	if token == "usdc" {
		out = fmt.Sprintf("%.6f", in*mockETHPerUSDC)
		msg = fmt.Sprintf("Swapped %s USDC for %s ETH (simulated)", amount, out)
	} else {
		out = fmt.Sprintf("%.2f", in/mockETHPerUSDC)
		msg = fmt.Sprintf("Swapped %s ETH for %s USDC (simulated)", amount, out)
	}
	m.sink.AppendTx(msg, consolelog.SeveritySuccess, "", "", true)
	m.record("swap", token, amount, history.StatusSimulated)
	return Outcome{Simulated: true, OutAmount: out, Message: msg}, nil
}

func (m *MockExecutor) Supply(ctx context.Context, amount string) (Outcome, error) {
	m.sink.Append("Preparing supply...", consolelog.SeverityProcessing)
	m.pause()
	m.submitted()
	if err := m.ledger.Deposit(amount); err != nil {
		return Outcome{}, err
	}
	msg := fmt.Sprintf("Supplied %s USDC to the agent (simulated). Agent balance: %s USDC", amount, m.ledger.Balance())
	m.sink.AppendTx(msg, consolelog.SeveritySuccess, "", "", true)
	m.record("supply", "usdc", amount, history.StatusSimulated)
	return Outcome{Simulated: true, Message: msg}, nil
}

func (m *MockExecutor) Withdraw(ctx context.Context, amount string) (Outcome, error) {
	m.sink.Append("Preparing withdrawal...", consolelog.SeverityProcessing)
	m.pause()
	m.submitted()
	if err := m.ledger.Withdraw(amount); err != nil {
		return Outcome{}, err
	}
	msg := fmt.Sprintf("Withdrew %s USDC from the agent (simulated). Agent balance: %s USDC", amount, m.ledger.Balance())
	m.sink.AppendTx(msg, consolelog.SeveritySuccess, "", "", true)
	m.record("withdraw", "usdc", amount, history.StatusSimulated)
	return Outcome{Simulated: true, Message: msg}, nil
}

func (m *MockExecutor) Buy(ctx context.Context, amount string) (Outcome, error) {
	n, err := strconv.Atoi(amount)
	if err != nil || n <= 0 {
		return Outcome{}, clierr.New(clierr.CodeValidation, "buy amount must be a whole number of credits")
	}
	m.sink.Append("Preparing credit purchase...", consolelog.SeverityProcessing)
	m.pause()
	m.submitted()
	total := m.ledger.AddCredits(n)
	msg := fmt.Sprintf("Purchased %d credits (simulated). Credits: %d", n, total)
	m.sink.AppendTx(msg, consolelog.SeveritySuccess, "", "", true)
	return Outcome{Simulated: true, Message: msg}, nil
}

func (m *MockExecutor) SwapInfo(ctx context.Context) (model.SwapReference, error) {
	network := m.tracker.Network()
	return model.SwapReference{
		Pair:          "USDC/ETH",
		USDCPerETH:    refUSDCPerETH,
		ETHPerUSDC:    refETHPerUSDC,
		FeeTier:       contracts.SwapFeeTier,
		SlippagePct:   float64(contracts.SwapSlippageBps) / 100,
		DeadlineMins:  contracts.SwapDeadlineMinutes,
		RouterAddress: network.SwapRouterAddress,
		Simulated:     true,
		FetchedAt:     m.now().UTC().Format(time.RFC3339),
	}, nil
}
