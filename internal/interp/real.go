package interp

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/openwallet-labs/defi-agent/internal/backend"
	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/history"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/swap"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

// RealExecutor routes mutating verbs through the backend credit endpoint
// and, where a live route exists, executes swaps on-chain. The swap engine
// is nil on chains without a wired route; those swaps stay backend-only.
type RealExecutor struct {
	backend *backend.Client
	engine  *swap.Engine
	sink    *consolelog.Sink
	tracker *wallet.Tracker
	ledger  *ledger.Ledger
	store   *history.Store
	now     func() time.Time
}

func NewRealExecutor(client *backend.Client, engine *swap.Engine, sink *consolelog.Sink, tracker *wallet.Tracker, led *ledger.Ledger, store *history.Store) *RealExecutor {
	return &RealExecutor{
		backend: client,
		engine:  engine,
		sink:    sink,
		tracker: tracker,
		ledger:  led,
		store:   store,
		now:     time.Now,
	}
}

// applyResult folds the backend's authoritative counters into the ledger.
func (r *RealExecutor) applyResult(result backend.ActionResult) {
	r.ledger.SetCredits(result.Credits)
	if result.AgentBalance != "" {
		_ = r.ledger.SetBalance(result.AgentBalance)
	}
}

func (r *RealExecutor) submit(ctx context.Context, action, token, amount string) (backend.ActionResult, error) {
	network := r.tracker.Network()
	result, err := r.backend.SubmitAction(ctx, backend.ActionRequest{
		Action:  action,
		UserID:  r.tracker.Address(),
		Token:   token,
		Amount:  amount,
		ChainID: network.ChainID,
	})
	if err != nil {
		return backend.ActionResult{}, err
	}
	if !result.Accepted {
		msg := result.Message
		if msg == "" {
			msg = "backend rejected " + action
		}
		return result, clierr.New(clierr.CodeBackend, msg)
	}
	r.applyResult(result)
	return result, nil
}

func (r *RealExecutor) Swap(ctx context.Context, amount, token string) (Outcome, error) {
	r.sink.Append("Submitting swap to the agent...", consolelog.SeverityProcessing)
	if _, err := r.submit(ctx, backend.ActionSwap, token, amount); err != nil {
		return Outcome{}, err
	}

	if r.engine == nil {
		msg := fmt.Sprintf("Swap of %s %s accepted by the agent", amount, token)
		r.sink.Append(msg, consolelog.SeveritySuccess)
		return Outcome{Message: msg}, nil
	}

	direction := swap.USDCToETH
	decimals := contracts.USDCDecimals
	if token == "eth" {
		direction = swap.ETHToUSDC
		decimals = 18
	}
	amountIn, err := contracts.ParseDecimal(amount, decimals)
	if err != nil {
		return Outcome{}, clierr.Wrap(clierr.CodeValidation, "invalid swap amount", err)
	}

	network := r.tracker.Network()
	rec := r.recordPending("swap", token, amount)

	result, err := r.engine.Execute(ctx, direction, amountIn, r.tracker.Address())
	if err != nil {
		r.closeRecord(rec, history.StatusFailed, result.SwapHash)
		return Outcome{TxHash: result.SwapHash}, err
	}
	if result.ApproveHash != "" {
		r.sink.AppendTx("Router approval confirmed: "+result.ApproveHash,
			consolelog.SeverityInfo, result.ApproveHash, network.ExplorerTxURL(result.ApproveHash), false)
	}
	msg := fmt.Sprintf("Swap confirmed: %s %s in, at least %s out", amount, token, formatOut(direction, result.MinOut))
	r.sink.AppendTx(msg, consolelog.SeveritySuccess, result.SwapHash, network.ExplorerTxURL(result.SwapHash), false)
	r.closeRecord(rec, history.StatusConfirmed, result.SwapHash)
	return Outcome{TxHash: result.SwapHash, Message: msg}, nil
}

func formatOut(direction swap.Direction, minOut *big.Int) string {
	if direction == swap.USDCToETH {
		return contracts.FormatUnits(minOut, 18) + " ETH"
	}
	return contracts.FormatUnits(minOut, contracts.USDCDecimals) + " USDC"
}

func (r *RealExecutor) Supply(ctx context.Context, amount string) (Outcome, error) {
	r.sink.Append("Submitting supply to the agent...", consolelog.SeverityProcessing)
	if _, err := r.submit(ctx, backend.ActionSupply, "usdc", amount); err != nil {
		return Outcome{}, err
	}
	msg := fmt.Sprintf("Supplied %s USDC. Agent balance: %s USDC", amount, r.ledger.Balance())
	r.sink.Append(msg, consolelog.SeveritySuccess)
	rec := r.recordPending("supply", "usdc", amount)
	r.closeRecord(rec, history.StatusConfirmed, "")
	return Outcome{Message: msg}, nil
}

func (r *RealExecutor) Withdraw(ctx context.Context, amount string) (Outcome, error) {
	r.sink.Append("Submitting withdrawal to the agent...", consolelog.SeverityProcessing)
	if _, err := r.submit(ctx, backend.ActionWithdraw, "usdc", amount); err != nil {
		return Outcome{}, err
	}
	msg := fmt.Sprintf("Withdrew %s USDC. Agent balance: %s USDC", amount, r.ledger.Balance())
	r.sink.Append(msg, consolelog.SeveritySuccess)
	rec := r.recordPending("withdraw", "usdc", amount)
	r.closeRecord(rec, history.StatusConfirmed, "")
	return Outcome{Message: msg}, nil
}

// Buy is a two-step handshake: the backend quotes on "buy" and commits on
// "confirm-buy".
func (r *RealExecutor) Buy(ctx context.Context, amount string) (Outcome, error) {
	r.sink.Append("Requesting credit purchase...", consolelog.SeverityProcessing)
	if _, err := r.submit(ctx, backend.ActionBuy, "", amount); err != nil {
		return Outcome{}, err
	}
	result, err := r.submit(ctx, backend.ActionConfirmBuy, "", amount)
	if err != nil {
		return Outcome{}, err
	}
	msg := fmt.Sprintf("Purchased %s credits. Credits: %d", amount, result.Credits)
	r.sink.Append(msg, consolelog.SeveritySuccess)
	return Outcome{Message: msg}, nil
}

func (r *RealExecutor) SwapInfo(ctx context.Context) (model.SwapReference, error) {
	network := r.tracker.Network()
	ref := model.SwapReference{
		Pair:          "USDC/ETH",
		USDCPerETH:    refUSDCPerETH,
		ETHPerUSDC:    refETHPerUSDC,
		FeeTier:       contracts.SwapFeeTier,
		SlippagePct:   float64(contracts.SwapSlippageBps) / 100,
		DeadlineMins:  contracts.SwapDeadlineMinutes,
		RouterAddress: network.SwapRouterAddress,
		Simulated:     true,
		FetchedAt:     r.now().UTC().Format(time.RFC3339),
	}
	if r.engine == nil {
		return ref, nil
	}
	price, err := r.engine.EthUsdPrice(ctx)
	if err != nil {
		// Fall back to the reference card rather than failing the verb.
		return ref, nil
	}
	ref.Simulated = false
	ref.PriceFeedStale = price.Stale
	ref.USDCPerETH = price.USDPerETH.FloatString(2)
	ref.ETHPerUSDC = new(big.Rat).Inv(price.USDPerETH).FloatString(6)
	return ref, nil
}

func (r *RealExecutor) recordPending(verb, token, amount string) string {
	if r.store == nil {
		return ""
	}
	network := r.tracker.Network()
	rec, err := r.store.Record(r.tracker.Address(), model.TransactionRecord{
		ChainID:   network.ChainID,
		Network:   network.Name,
		Direction: history.DirectionOutgoing,
		Verb:      verb,
		Token:     token,
		Amount:    amount,
		Status:    history.StatusPending,
	})
	if err != nil {
		return ""
	}
	return rec.ID
}

func (r *RealExecutor) closeRecord(id, status, hash string) {
	if r.store == nil || id == "" {
		return
	}
	_ = r.store.UpdateStatus(id, status, hash)
}
