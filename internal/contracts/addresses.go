package contracts

import "github.com/ethereum/go-ethereum/common"

// Sepolia is the only chain with a live swap route wired end to end.
const (
	SepoliaChainID int64 = 11155111

	SepoliaWETH       = "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"
	SepoliaETHUSDFeed = "0x694AA1769357215DE4FAC081bf1f309aDC325306"
)

// Swap route defaults shared by the quote card and the executor. The fee
// tier uses Uniswap units, hundredths of a bip: 3000 means 0.30%.
const (
	SwapFeeTier         = 3000
	SwapSlippageBps     = 50
	SwapDeadlineMinutes = 20
)

// USDCDecimals applies to every USDC deployment the console touches.
const USDCDecimals = 6

func SepoliaWETHAddress() common.Address { return common.HexToAddress(SepoliaWETH) }

func SepoliaETHUSDFeedAddress() common.Address { return common.HexToAddress(SepoliaETHUSDFeed) }

// HasLiveSwapRoute reports whether real swap execution is wired for a chain.
func HasLiveSwapRoute(chainID int64) bool { return chainID == SepoliaChainID }
