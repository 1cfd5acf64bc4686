package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
	"sync"

	"github.com/openwallet-labs/defi-agent/internal/netreg"
)

// MockAddress is the account a simulated session connects as.
const MockAddress = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"

// mockNativeBalance is 0.5 ETH in wei.
var mockNativeBalance, _ = new(big.Int).SetString("500000000000000000", 10)

// MockProvider simulates a browser wallet: connect always succeeds, chain
// switches are instant, and submitted transactions confirm immediately with
// fabricated hashes.
type MockProvider struct {
	mu      sync.Mutex
	chainID int64
	nonce   uint64
}

func NewMockProvider(chainID int64) *MockProvider {
	return &MockProvider{chainID: chainID}
}

func (p *MockProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{MockAddress}, nil
}

func (p *MockProvider) ChainID(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *MockProvider) SwitchChain(ctx context.Context, chainID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chainID = chainID
	return nil
}

func (p *MockProvider) AddChain(ctx context.Context, params netreg.AddChainParams) error {
	return nil
}

func (p *MockProvider) SendTransaction(ctx context.Context, req TxRequest) (string, error) {
	p.mu.Lock()
	p.nonce++
	n := p.nonce
	p.mu.Unlock()

	sum := sha256.Sum256([]byte(MockAddress + ":" + req.To + ":" + strconv.FormatUint(n, 10)))
	return "0x" + hex.EncodeToString(sum[:]), nil
}

func (p *MockProvider) TransactionReceipt(ctx context.Context, hash string) (ReceiptStatus, error) {
	return ReceiptSuccess, nil
}

func (p *MockProvider) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	return new(big.Int).Set(mockNativeBalance), nil
}

func (p *MockProvider) TokenBalance(ctx context.Context, token, address string) (*big.Int, error) {
	// 250 USDC in base units.
	return big.NewInt(250_000_000), nil
}
