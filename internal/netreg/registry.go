package netreg

import "fmt"

// NetworkInfo describes one chain the console knows about. Router and
// stablecoin addresses are optional; chains without them fall back to
// simulated swaps.
type NetworkInfo struct {
	ChainID              int64  `json:"chain_id"`
	Name                 string `json:"name"`
	NativeCurrencySymbol string `json:"native_currency"`
	NativeCurrencyName   string `json:"native_currency_name,omitempty"`
	ExplorerBaseURL      string `json:"explorer_url"`
	RPCURL               string `json:"rpc_url,omitempty"`
	IsSupported          bool   `json:"is_supported"`
	SwapRouterAddress    string `json:"swap_router,omitempty"`
	StableCoinAddress    string `json:"usdc_address,omitempty"`
}

func (n NetworkInfo) HasSwapRouter() bool { return n.SwapRouterAddress != "" }

func (n NetworkInfo) HasStableCoin() bool { return n.StableCoinAddress != "" }

// ExplorerTxURL builds the explorer link for a transaction hash. Empty when
// the network has no configured explorer.
func (n NetworkInfo) ExplorerTxURL(hash string) string {
	if n.ExplorerBaseURL == "" || hash == "" {
		return ""
	}
	return n.ExplorerBaseURL + "/tx/" + hash
}

func (n NetworkInfo) ExplorerAddressURL(addr string) string {
	if n.ExplorerBaseURL == "" || addr == "" {
		return ""
	}
	return n.ExplorerBaseURL + "/address/" + addr
}

func (n NetworkInfo) ExplorerTokenURL(addr string) string {
	if n.ExplorerBaseURL == "" || addr == "" {
		return ""
	}
	return n.ExplorerBaseURL + "/token/" + addr
}

// AddChainParams is the payload shape of wallet_addEthereumChain, used when
// a chain switch fails because the wallet does not know the chain.
type AddChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	RPCURLs           []string `json:"rpcUrls"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AddChainParamsFor formats full chain metadata for a provider add request.
func AddChainParamsFor(n NetworkInfo) AddChainParams {
	name := n.NativeCurrencyName
	if name == "" {
		name = n.NativeCurrencySymbol
	}
	return AddChainParams{
		ChainID:   fmt.Sprintf("0x%x", n.ChainID),
		ChainName: n.Name,
		NativeCurrency: Currency{
			Name:     name,
			Symbol:   n.NativeCurrencySymbol,
			Decimals: 18,
		},
		RPCURLs:           []string{n.RPCURL},
		BlockExplorerURLs: []string{n.ExplorerBaseURL},
	}
}

// Registry is an immutable chain-id keyed lookup table, constructed once at
// startup and injected into consumers.
type Registry struct {
	byID  map[int64]NetworkInfo
	order []int64
}

func New(networks []NetworkInfo) *Registry {
	r := &Registry{byID: make(map[int64]NetworkInfo, len(networks))}
	for _, n := range networks {
		if _, dup := r.byID[n.ChainID]; dup {
			continue
		}
		r.byID[n.ChainID] = n
		r.order = append(r.order, n.ChainID)
	}
	return r
}

// Lookup never fails: unrecognized chain ids yield a synthesized unsupported
// record so callers can keep rendering.
func (r *Registry) Lookup(chainID int64) NetworkInfo {
	if n, ok := r.byID[chainID]; ok {
		return n
	}
	return NetworkInfo{
		ChainID:              chainID,
		Name:                 fmt.Sprintf("Unknown Network (%d)", chainID),
		NativeCurrencySymbol: "ETH",
		ExplorerBaseURL:      "",
		IsSupported:          false,
	}
}

// All returns networks in declaration order.
func (r *Registry) All() []NetworkInfo {
	out := make([]NetworkInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Supported returns only networks flagged as supported.
func (r *Registry) Supported() []NetworkInfo {
	out := make([]NetworkInfo, 0, len(r.order))
	for _, id := range r.order {
		if n := r.byID[id]; n.IsSupported {
			out = append(out, n)
		}
	}
	return out
}

// Default builds the standard network table. Base Sepolia first: it is the
// console's default chain.
func Default() *Registry {
	return New([]NetworkInfo{
		{
			ChainID:              84532,
			Name:                 "Base Sepolia",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Sepolia Ether",
			ExplorerBaseURL:      "https://sepolia.basescan.org",
			RPCURL:               "https://sepolia.base.org",
			IsSupported:          true,
			SwapRouterAddress:    "0x8AB702a70C9769EE2a214D6610d06AC577A482c5",
			StableCoinAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		},
		{
			ChainID:              84531,
			Name:                 "Base Sepolia (Legacy)",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Sepolia Ether",
			ExplorerBaseURL:      "https://sepolia.basescan.org",
			RPCURL:               "https://sepolia.base.org",
			IsSupported:          true,
			SwapRouterAddress:    "0x8AB702a70C9769EE2a214D6610d06AC577A482c5",
			StableCoinAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		},
		{
			ChainID:              8453,
			Name:                 "Base",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Base Ether",
			ExplorerBaseURL:      "https://basescan.org",
			RPCURL:               "https://mainnet.base.org",
			IsSupported:          true,
			SwapRouterAddress:    "0xaAA37aE8713c2c1078F12302D7f4205E6De9e4eE",
		},
		{
			ChainID:              1,
			Name:                 "Ethereum Mainnet",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Ether",
			ExplorerBaseURL:      "https://etherscan.io",
			RPCURL:               "https://eth.llamarpc.com",
			IsSupported:          true,
			SwapRouterAddress:    "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		},
		{
			ChainID:              11155111,
			Name:                 "Sepolia Testnet",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Sepolia Ether",
			ExplorerBaseURL:      "https://sepolia.etherscan.io",
			RPCURL:               "https://ethereum-sepolia-rpc.publicnode.com",
			IsSupported:          true,
			SwapRouterAddress:    "0x6418EEC70f50913ff0d756B48d32Ce7C02b47C47",
			StableCoinAddress:    "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		},
		{
			ChainID:              17000,
			Name:                 "Holesky",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Holesky Ether",
			ExplorerBaseURL:      "https://holesky.etherscan.io",
			RPCURL:               "https://ethereum-holesky-rpc.publicnode.com",
			IsSupported:          true,
		},
		{
			ChainID:              42161,
			Name:                 "Arbitrum One",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Ether",
			ExplorerBaseURL:      "https://arbiscan.io",
			RPCURL:               "https://arb1.arbitrum.io/rpc",
			IsSupported:          true,
			SwapRouterAddress:    "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506",
		},
		{
			ChainID:              10,
			Name:                 "Optimism",
			NativeCurrencySymbol: "ETH",
			NativeCurrencyName:   "Ether",
			ExplorerBaseURL:      "https://optimistic.etherscan.io",
			RPCURL:               "https://mainnet.optimism.io",
			IsSupported:          true,
			SwapRouterAddress:    "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45",
		},
		{
			ChainID:              137,
			Name:                 "Polygon",
			NativeCurrencySymbol: "MATIC",
			NativeCurrencyName:   "MATIC",
			ExplorerBaseURL:      "https://polygonscan.com",
			RPCURL:               "https://polygon-rpc.com",
			IsSupported:          true,
			SwapRouterAddress:    "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff",
		},
		{
			ChainID:              56,
			Name:                 "BNB Chain",
			NativeCurrencySymbol: "BNB",
			NativeCurrencyName:   "Binance Coin",
			ExplorerBaseURL:      "https://bscscan.com",
			RPCURL:               "https://bsc-dataseed.binance.org",
			IsSupported:          true,
			SwapRouterAddress:    "0x10ED43C718714eb63d5aA57B78B54704E256024E",
		},
		{
			ChainID:              43114,
			Name:                 "Avalanche",
			NativeCurrencySymbol: "AVAX",
			NativeCurrencyName:   "Avalanche",
			ExplorerBaseURL:      "https://snowtrace.io",
			RPCURL:               "https://api.avax.network/ext/bc/C/rpc",
			IsSupported:          true,
		},
	})
}
