// Package interp parses console commands and routes them through an
// Executor: simulated phases in mock mode, backend plus on-chain calls in
// real mode.
package interp

import (
	"context"
	"fmt"
	"strings"

	"github.com/openwallet-labs/defi-agent/internal/consolelog"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/policy"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

// Verb is a recognized console command. The set is closed; anything else
// is an unknown command.
type Verb string

const (
	VerbSwap     Verb = "swap"
	VerbSupply   Verb = "supply"
	VerbWithdraw Verb = "withdraw"
	VerbBuy      Verb = "buy"
	VerbHelp     Verb = "help"
	VerbNetwork  Verb = "network"
	VerbSwapInfo Verb = "swap-info"
)

var verbs = map[Verb]string{
	VerbSwap:     "swap <amount> <usdc|eth> - swap between USDC and ETH",
	VerbSupply:   "supply <amount> - supply USDC to the agent",
	VerbWithdraw: "withdraw <amount> - withdraw USDC from the agent",
	VerbBuy:      "buy <amount> - buy AI credits",
	VerbHelp:     "help - list available commands",
	VerbNetwork:  "network - show the active network",
	VerbSwapInfo: "swap-info - show the swap rate card",
}

// helpOrder fixes the listing order of the seven verbs.
var helpOrder = []Verb{VerbSwap, VerbSupply, VerbWithdraw, VerbBuy, VerbHelp, VerbNetwork, VerbSwapInfo}

// Command is one parsed console input.
type Command struct {
	Verb Verb
	Args []string
	Raw  string
}

// Parse lowercases and whitespace-splits the input. Unknown verbs are an
// error; argument validation happens at dispatch.
func Parse(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return Command{}, clierr.New(clierr.CodeValidation, "empty command")
	}
	verb := Verb(fields[0])
	if _, ok := verbs[verb]; !ok {
		return Command{Raw: input}, clierr.New(clierr.CodeValidation, "unknown command: "+fields[0])
	}
	return Command{Verb: verb, Args: fields[1:], Raw: input}, nil
}

// Outcome is what an executor reports back for one mutating verb.
type Outcome struct {
	TxHash    string
	Simulated bool
	OutAmount string
	Message   string
}

// Executor runs the mutating verbs and serves the rate card. The mock
// implementation simulates everything; the real one talks to the backend
// and, where wired, the chain.
type Executor interface {
	Swap(ctx context.Context, amount, token string) (Outcome, error)
	Supply(ctx context.Context, amount string) (Outcome, error)
	Withdraw(ctx context.Context, amount string) (Outcome, error)
	Buy(ctx context.Context, amount string) (Outcome, error)
	SwapInfo(ctx context.Context) (model.SwapReference, error)
}

// Interpreter owns the session wiring for the console loop.
type Interpreter struct {
	sink    *consolelog.Sink
	tracker *wallet.Tracker
	ledger  *ledger.Ledger
	exec    Executor
	mock    bool
}

func New(sink *consolelog.Sink, tracker *wallet.Tracker, led *ledger.Ledger, exec Executor, mock bool) *Interpreter {
	return &Interpreter{sink: sink, tracker: tracker, ledger: led, exec: exec, mock: mock}
}

// Execute parses and runs one console input. Unknown commands append
// exactly one error entry and never touch the counters.
func (i *Interpreter) Execute(ctx context.Context, input string) (model.CommandResult, error) {
	result := model.CommandResult{
		Command:   strings.TrimSpace(input),
		Simulated: i.mock,
		Credits:   i.ledger.Credits(),
		Balance:   i.ledger.Balance(),
	}

	cmd, err := Parse(input)
	if err != nil {
		i.sink.Append(err.Error()+". Type help for available commands.", consolelog.SeverityError)
		result.LogLines = i.sink.Len()
		return result, err
	}
	result.Verb = string(cmd.Verb)
	i.sink.Append("> "+result.Command, consolelog.SeverityCommand)

	if err := policy.CheckVerb(string(cmd.Verb), policy.Session{
		Connected: i.tracker.Connected(),
		Network:   i.tracker.Network(),
		MockMode:  i.mock,
	}); err != nil {
		i.sink.Append(err.Error(), consolelog.SeverityError)
		result.LogLines = i.sink.Len()
		return result, err
	}

	var outcome Outcome
	var runErr error
	switch cmd.Verb {
	case VerbHelp:
		i.runHelp()
		result.Accepted = true
	case VerbNetwork:
		i.runNetwork()
		result.Accepted = true
	case VerbSwapInfo:
		runErr = i.runSwapInfo(ctx)
		result.Accepted = runErr == nil
	case VerbSwap:
		outcome, runErr = i.runSwap(ctx, cmd.Args)
		result.Accepted = runErr == nil
	case VerbSupply:
		outcome, runErr = i.runAmountVerb(ctx, cmd.Args, "supply", i.exec.Supply)
		result.Accepted = runErr == nil
	case VerbWithdraw:
		outcome, runErr = i.runAmountVerb(ctx, cmd.Args, "withdraw", i.exec.Withdraw)
		result.Accepted = runErr == nil
	case VerbBuy:
		outcome, runErr = i.runAmountVerb(ctx, cmd.Args, "buy", i.exec.Buy)
		result.Accepted = runErr == nil
	}

	if runErr != nil {
		i.sink.Append(runErr.Error(), consolelog.SeverityError)
	}
	result.TxHash = outcome.TxHash
	result.Credits = i.ledger.Credits()
	result.Balance = i.ledger.Balance()
	result.LogLines = i.sink.Len()
	return result, runErr
}

func (i *Interpreter) runHelp() {
	i.sink.Append("Available commands:", consolelog.SeverityInfo)
	for _, verb := range helpOrder {
		i.sink.Append("  "+verbs[verb], consolelog.SeverityInfo)
	}
}

func (i *Interpreter) runNetwork() {
	network := i.tracker.Network()
	msg := fmt.Sprintf("Network: %s (chain %d)", network.Name, network.ChainID)
	if !network.IsSupported {
		msg += " - unsupported"
	}
	i.sink.Append(msg, consolelog.SeverityInfo)
	i.sink.Append("  Native currency: "+network.NativeCurrencySymbol, consolelog.SeverityInfo)
	if network.ExplorerBaseURL != "" {
		i.sink.Append("  Explorer: "+network.ExplorerBaseURL, consolelog.SeverityInfo)
	}
	if network.HasSwapRouter() {
		i.sink.Append("  Swap router: "+network.SwapRouterAddress, consolelog.SeverityInfo)
	}
	if network.HasStableCoin() {
		i.sink.Append("  USDC: "+network.StableCoinAddress, consolelog.SeverityInfo)
	}
}

func (i *Interpreter) runSwapInfo(ctx context.Context) error {
	info, err := i.exec.SwapInfo(ctx)
	if err != nil {
		return err
	}
	i.sink.Append(fmt.Sprintf("Swap rates for %s:", info.Pair), consolelog.SeverityInfo)
	i.sink.Append(fmt.Sprintf("  1 ETH = %s USDC", info.USDCPerETH), consolelog.SeverityInfo)
	i.sink.Append(fmt.Sprintf("  1 USDC = %s ETH", info.ETHPerUSDC), consolelog.SeverityInfo)
	// Fee tiers come in Uniswap units, hundredths of a bip.
	i.sink.Append(fmt.Sprintf("  Fee tier %.2f%%, slippage %.1f%%, deadline %d minutes",
		float64(info.FeeTier)/10000, info.SlippagePct, info.DeadlineMins), consolelog.SeverityInfo)

	network := i.tracker.Network()
	if info.RouterAddress != "" {
		line := "  Router: " + info.RouterAddress
		if url := network.ExplorerAddressURL(info.RouterAddress); url != "" {
			line += " (" + url + ")"
		}
		i.sink.Append(line, consolelog.SeverityInfo)
	} else {
		i.sink.Append("  No on-chain route configured; rates are reference only", consolelog.SeverityInfo)
	}
	if network.HasStableCoin() {
		line := "  USDC: " + network.StableCoinAddress
		if url := network.ExplorerTokenURL(network.StableCoinAddress); url != "" {
			line += " (" + url + ")"
		}
		i.sink.Append(line, consolelog.SeverityInfo)
	}
	return nil
}

func (i *Interpreter) runSwap(ctx context.Context, args []string) (Outcome, error) {
	if len(args) != 2 {
		return Outcome{}, clierr.New(clierr.CodeValidation, "usage: swap <amount> <usdc|eth>")
	}
	amount, token := args[0], args[1]
	if token != "usdc" && token != "eth" {
		return Outcome{}, clierr.New(clierr.CodeValidation, "swap token must be usdc or eth")
	}
	if err := validateAmount(amount); err != nil {
		return Outcome{}, err
	}
	return i.exec.Swap(ctx, amount, token)
}

func (i *Interpreter) runAmountVerb(ctx context.Context, args []string, verb string, run func(context.Context, string) (Outcome, error)) (Outcome, error) {
	if len(args) != 1 {
		return Outcome{}, clierr.New(clierr.CodeValidation, "usage: "+verb+" <amount>")
	}
	if err := validateAmount(args[0]); err != nil {
		return Outcome{}, err
	}
	return run(ctx, args[0])
}

func validateAmount(v string) error {
	for _, r := range v {
		if (r < '0' || r > '9') && r != '.' {
			return clierr.New(clierr.CodeValidation, "amount must be a positive number")
		}
	}
	if strings.Count(v, ".") > 1 || v == "" || v == "." {
		return clierr.New(clierr.CodeValidation, "amount must be a positive number")
	}
	if strings.Trim(v, "0.") == "" {
		return clierr.New(clierr.CodeValidation, "amount must be greater than zero")
	}
	return nil
}
