package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type EnvelopeMeta struct {
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
	Command   string      `json:"command"`
	ChainID   int64       `json:"chain_id,omitempty"`
	Network   string      `json:"network,omitempty"`
	Simulated bool        `json:"simulated,omitempty"`
	Cache     CacheStatus `json:"cache"`
}

type CacheStatus struct {
	Status string `json:"status"`
	AgeMS  int64  `json:"age_ms"`
	Stale  bool   `json:"stale"`
}

// WalletStatus describes the tracked session: connected account, chain, and
// whether the chain is one the console supports.
type WalletStatus struct {
	Connected        bool   `json:"connected"`
	Address          string `json:"address,omitempty"`
	AddressShort     string `json:"address_short,omitempty"`
	ChainID          int64  `json:"chain_id,omitempty"`
	Network          string `json:"network,omitempty"`
	WrongNetwork     bool   `json:"wrong_network"`
	NativeBalance    string `json:"native_balance,omitempty"`
	NativeCurrency   string `json:"native_currency,omitempty"`
	ExplorerURL      string `json:"explorer_url,omitempty"`
	ProviderDetected bool   `json:"provider_detected"`
}

// SummaryData is the portfolio summary served by the backend, with a
// simulated fallback when the backend is unreachable.
type SummaryData struct {
	Address        string  `json:"address"`
	Credits        int     `json:"credits"`
	AgentBalance   string  `json:"agent_balance"`
	TotalValueUSD  float64 `json:"total_value_usd"`
	SuppliedUSD    float64 `json:"supplied_usd"`
	BorrowedUSD    float64 `json:"borrowed_usd"`
	NetAPY         float64 `json:"net_apy"`
	HealthFactor   float64 `json:"health_factor,omitempty"`
	Simulated      bool    `json:"simulated"`
	FetchedAt      string  `json:"fetched_at"`
	BackendLatency int64   `json:"backend_latency_ms,omitempty"`
}

// AssetHolding is one token row in the assets listing.
type AssetHolding struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name,omitempty"`
	Address         string `json:"address,omitempty"`
	Decimals        int    `json:"decimals"`
	BalanceBase     string `json:"balance_base_units"`
	BalanceDecimal  string `json:"balance_decimal"`
	Native          bool   `json:"native,omitempty"`
	ExplorerURL     string `json:"explorer_url,omitempty"`
	FetchedAt       string `json:"fetched_at"`
	SimulatedSource bool   `json:"simulated,omitempty"`
}

// TransactionRecord is one entry in the local transaction history.
type TransactionRecord struct {
	ID          string `json:"id"`
	Hash        string `json:"hash,omitempty"`
	ChainID     int64  `json:"chain_id"`
	Network     string `json:"network,omitempty"`
	Direction   string `json:"direction"`
	Verb        string `json:"verb,omitempty"`
	Token       string `json:"token,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Counterpart string `json:"counterpart,omitempty"`
	Status      string `json:"status"`
	Simulated   bool   `json:"simulated"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// CommandResult is the envelope payload for one interpreted console command.
type CommandResult struct {
	Command   string `json:"command"`
	Verb      string `json:"verb"`
	Accepted  bool   `json:"accepted"`
	Simulated bool   `json:"simulated"`
	TxHash    string `json:"tx_hash,omitempty"`
	Credits   int    `json:"credits"`
	Balance   string `json:"agent_balance"`
	LogLines  int    `json:"log_lines"`
}

// SwapReference is the rate card shown by swap-info.
type SwapReference struct {
	Pair           string  `json:"pair"`
	USDCPerETH     string  `json:"usdc_per_eth"`
	ETHPerUSDC     string  `json:"eth_per_usdc"`
	FeeTier        int     `json:"fee_tier"`
	SlippagePct    float64 `json:"slippage_pct"`
	DeadlineMins   int     `json:"deadline_minutes"`
	RouterAddress  string  `json:"router_address,omitempty"`
	Simulated      bool    `json:"simulated"`
	PriceFeedStale bool    `json:"price_feed_stale,omitempty"`
	FetchedAt      string  `json:"fetched_at"`
}

// VersionInfo is the payload of the version command.
type VersionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}
