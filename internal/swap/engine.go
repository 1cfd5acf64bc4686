// Package swap implements the live USDC/ETH route on Sepolia: a Chainlink
// price read for quoting, an ERC-20 approval when needed, and a Uniswap V3
// exactInputSingle through the configured router.
package swap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

// Direction of a swap relative to the stablecoin.
type Direction string

const (
	USDCToETH Direction = "usdc_to_eth"
	ETHToUSDC Direction = "eth_to_usdc"
)

// priceMaxAge flags a feed answer as stale once it exceeds this.
const priceMaxAge = time.Hour

// ChainReader performs read-only contract calls.
type ChainReader interface {
	Call(ctx context.Context, to string, data []byte) ([]byte, error)
}

// TxSender submits transactions and waits for receipts.
type TxSender interface {
	SendTransaction(ctx context.Context, req wallet.TxRequest) (string, error)
	WaitMined(ctx context.Context, hash string) (wallet.ReceiptStatus, error)
}

// Price is one ETH/USD feed observation.
type Price struct {
	USDPerETH *big.Rat
	UpdatedAt time.Time
	Stale     bool
}

// Result reports the submitted transactions of one swap. ApproveHash is
// empty when the router allowance already covered the input.
type Result struct {
	ApproveHash string
	SwapHash    string
	AmountIn    *big.Int
	MinOut      *big.Int
}

type Engine struct {
	reader  ChainReader
	sender  TxSender
	network netreg.NetworkInfo
	now     func() time.Time
}

func NewEngine(reader ChainReader, sender TxSender, network netreg.NetworkInfo) (*Engine, error) {
	if !contracts.HasLiveSwapRoute(network.ChainID) {
		return nil, clierr.New(clierr.CodeUnsupported, network.Name+" has no live swap route")
	}
	if !network.HasSwapRouter() || !network.HasStableCoin() {
		return nil, clierr.New(clierr.CodeUnsupported, network.Name+" is missing router or stablecoin addresses")
	}
	return &Engine{reader: reader, sender: sender, network: network, now: time.Now}, nil
}

// SetClock overrides the wall clock, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// EthUsdPrice reads the Chainlink ETH/USD aggregator.
func (e *Engine) EthUsdPrice(ctx context.Context) (Price, error) {
	data, err := contracts.PriceFeed.Pack("latestRoundData")
	if err != nil {
		return Price{}, clierr.Wrap(clierr.CodeInternal, "pack latestRoundData", err)
	}
	raw, err := e.reader.Call(ctx, contracts.SepoliaETHUSDFeed, data)
	if err != nil {
		return Price{}, clierr.Wrap(clierr.CodeProviderUnavailable, "read price feed", err)
	}
	outputs, err := contracts.PriceFeed.Unpack("latestRoundData", raw)
	if err != nil || len(outputs) < 5 {
		return Price{}, clierr.Wrap(clierr.CodeProviderUnavailable, "decode price feed answer", err)
	}
	answer, ok := outputs[1].(*big.Int)
	if !ok || answer.Sign() <= 0 {
		return Price{}, clierr.New(clierr.CodeProviderUnavailable, "price feed returned a non-positive answer")
	}
	updatedRaw, ok := outputs[3].(*big.Int)
	if !ok {
		return Price{}, clierr.New(clierr.CodeProviderUnavailable, "price feed returned no update time")
	}

	decData, err := contracts.PriceFeed.Pack("decimals")
	if err != nil {
		return Price{}, clierr.Wrap(clierr.CodeInternal, "pack decimals", err)
	}
	rawDec, err := e.reader.Call(ctx, contracts.SepoliaETHUSDFeed, decData)
	if err != nil {
		return Price{}, clierr.Wrap(clierr.CodeProviderUnavailable, "read price feed decimals", err)
	}
	decOut, err := contracts.PriceFeed.Unpack("decimals", rawDec)
	if err != nil || len(decOut) == 0 {
		return Price{}, clierr.Wrap(clierr.CodeProviderUnavailable, "decode price feed decimals", err)
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return Price{}, clierr.New(clierr.CodeProviderUnavailable, "unexpected price feed decimals")
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	price := new(big.Rat).SetFrac(new(big.Int).Set(answer), scale)
	updatedAt := time.Unix(updatedRaw.Int64(), 0).UTC()
	return Price{
		USDPerETH: price,
		UpdatedAt: updatedAt,
		Stale:     e.now().UTC().Sub(updatedAt) > priceMaxAge,
	}, nil
}

// QuoteOut converts an input amount to the expected output at the given
// price, before slippage.
func QuoteOut(direction Direction, amountIn *big.Int, price *big.Rat) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, clierr.New(clierr.CodeValidation, "amount must be positive")
	}
	if price == nil || price.Sign() <= 0 {
		return nil, clierr.New(clierr.CodeValidation, "price must be positive")
	}
	out := new(big.Rat)
	switch direction {
	case USDCToETH:
		// usdc (6 dec) -> wei (18 dec): amount / price, rescaled by 10^12.
		out.SetFrac(amountIn, big.NewInt(1))
		out.Quo(out, price)
		out.Mul(out, new(big.Rat).SetInt64(1_000_000_000_000))
	case ETHToUSDC:
		// wei -> usdc base units: amount * price / 10^12.
		out.SetFrac(amountIn, big.NewInt(1))
		out.Mul(out, price)
		out.Quo(out, new(big.Rat).SetInt64(1_000_000_000_000))
	default:
		return nil, clierr.New(clierr.CodeValidation, "unknown swap direction")
	}
	return new(big.Int).Quo(out.Num(), out.Denom()), nil
}

// ApplySlippage reduces an expected output by the default slippage budget.
func ApplySlippage(out *big.Int) *big.Int {
	min := new(big.Int).Mul(out, big.NewInt(10_000-contracts.SwapSlippageBps))
	return min.Div(min, big.NewInt(10_000))
}

// Execute runs one swap end to end: quote at the current price, approve the
// router when the direction spends USDC, submit exactInputSingle, and wait
// for each receipt.
func (e *Engine) Execute(ctx context.Context, direction Direction, amountIn *big.Int, sender string) (Result, error) {
	if !common.IsHexAddress(sender) {
		return Result{}, clierr.New(clierr.CodeValidation, "invalid sender address")
	}
	price, err := e.EthUsdPrice(ctx)
	if err != nil {
		return Result{}, err
	}
	if price.Stale {
		return Result{}, clierr.New(clierr.CodeStale, "price feed is stale, refusing to quote")
	}
	expectedOut, err := QuoteOut(direction, amountIn, price.USDPerETH)
	if err != nil {
		return Result{}, err
	}
	minOut := ApplySlippage(expectedOut)
	result := Result{AmountIn: new(big.Int).Set(amountIn), MinOut: minOut}

	var tokenIn, tokenOut common.Address
	value := big.NewInt(0)
	switch direction {
	case USDCToETH:
		tokenIn = common.HexToAddress(e.network.StableCoinAddress)
		tokenOut = contracts.SepoliaWETHAddress()
		approveHash, err := e.ensureAllowance(ctx, sender, amountIn)
		if err != nil {
			return result, err
		}
		result.ApproveHash = approveHash
	case ETHToUSDC:
		tokenIn = contracts.SepoliaWETHAddress()
		tokenOut = common.HexToAddress(e.network.StableCoinAddress)
		value = new(big.Int).Set(amountIn)
	default:
		return result, clierr.New(clierr.CodeValidation, "unknown swap direction")
	}

	deadline := big.NewInt(e.now().Add(contracts.SwapDeadlineMinutes * time.Minute).Unix())
	callData, err := contracts.Router.Pack("exactInputSingle", struct {
		TokenIn           common.Address `abi:"tokenIn"`
		TokenOut          common.Address `abi:"tokenOut"`
		Fee               *big.Int       `abi:"fee"`
		Recipient         common.Address `abi:"recipient"`
		Deadline          *big.Int       `abi:"deadline"`
		AmountIn          *big.Int       `abi:"amountIn"`
		AmountOutMinimum  *big.Int       `abi:"amountOutMinimum"`
		SqrtPriceLimitX96 *big.Int       `abi:"sqrtPriceLimitX96"`
	}{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(contracts.SwapFeeTier),
		Recipient:         common.HexToAddress(sender),
		Deadline:          deadline,
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return result, clierr.Wrap(clierr.CodeInternal, "pack exactInputSingle", err)
	}

	swapHash, err := e.sender.SendTransaction(ctx, wallet.TxRequest{
		To:       e.network.SwapRouterAddress,
		ValueWei: value,
		Data:     callData,
	})
	if err != nil {
		return result, err
	}
	result.SwapHash = swapHash

	status, err := e.sender.WaitMined(ctx, swapHash)
	if err != nil {
		return result, err
	}
	if status != wallet.ReceiptSuccess {
		return result, clierr.New(clierr.CodeChainTxFailed, "swap transaction reverted")
	}
	return result, nil
}

// ensureAllowance approves the router for amountIn when the current
// allowance is short, waiting for the approval to mine first.
func (e *Engine) ensureAllowance(ctx context.Context, owner string, amountIn *big.Int) (string, error) {
	data, err := contracts.ERC20.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(e.network.SwapRouterAddress))
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "pack allowance", err)
	}
	raw, err := e.reader.Call(ctx, e.network.StableCoinAddress, data)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "read allowance", err)
	}
	outputs, err := contracts.ERC20.Unpack("allowance", raw)
	if err != nil || len(outputs) == 0 {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "decode allowance", err)
	}
	allowance, ok := outputs[0].(*big.Int)
	if !ok {
		return "", clierr.New(clierr.CodeProviderUnavailable, "unexpected allowance output")
	}
	if allowance.Cmp(amountIn) >= 0 {
		return "", nil
	}

	approveData, err := contracts.ERC20.Pack("approve", common.HexToAddress(e.network.SwapRouterAddress), amountIn)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "pack approve", err)
	}
	hash, err := e.sender.SendTransaction(ctx, wallet.TxRequest{
		To:       e.network.StableCoinAddress,
		ValueWei: big.NewInt(0),
		Data:     approveData,
	})
	if err != nil {
		return "", err
	}
	status, err := e.sender.WaitMined(ctx, hash)
	if err != nil {
		return hash, err
	}
	if status != wallet.ReceiptSuccess {
		return hash, clierr.New(clierr.CodeChainTxFailed, "approval transaction reverted")
	}
	return hash, nil
}
