// Package wallet tracks the connected account session and talks to the
// chain through a Provider, so the console logic never touches RPC directly.
package wallet

import (
	"context"
	"math/big"

	"github.com/openwallet-labs/defi-agent/internal/netreg"
)

// TxRequest is a wallet-shaped transaction: target, value, calldata. Gas
// and nonce are the provider's problem.
type TxRequest struct {
	To       string
	ValueWei *big.Int
	Data     []byte
}

// ReceiptStatus is the terse receipt view the lifecycle machine consumes.
type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptSuccess  ReceiptStatus = "success"
	ReceiptReverted ReceiptStatus = "reverted"
)

// Provider abstracts the wallet/RPC surface. The real implementation signs
// locally and speaks JSON-RPC; tests substitute a fake.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (int64, error)
	SwitchChain(ctx context.Context, chainID int64) error
	AddChain(ctx context.Context, params netreg.AddChainParams) error
	SendTransaction(ctx context.Context, req TxRequest) (string, error)
	TransactionReceipt(ctx context.Context, hash string) (ReceiptStatus, error)
	BalanceAt(ctx context.Context, address string) (*big.Int, error)
	TokenBalance(ctx context.Context, token, address string) (*big.Int, error)
}

// EventKind enumerates provider-originated session events.
type EventKind string

const (
	EventAccountsChanged EventKind = "accounts_changed"
	EventChainChanged    EventKind = "chain_changed"
	EventDisconnected    EventKind = "disconnected"
)

// Event is one provider notification applied to the session tracker.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  int64
}
