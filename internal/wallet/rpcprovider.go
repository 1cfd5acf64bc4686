package wallet

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/netreg"
	"github.com/openwallet-labs/defi-agent/internal/wallet/signer"
)

// RPCOptions tune transaction submission and receipt polling.
type RPCOptions struct {
	Simulate      bool
	GasMultiplier float64
	PollInterval  time.Duration
	StepTimeout   time.Duration
}

func DefaultRPCOptions() RPCOptions {
	return RPCOptions{
		Simulate:      true,
		GasMultiplier: 1.2,
		PollInterval:  2 * time.Second,
		StepTimeout:   2 * time.Minute,
	}
}

// RPCProvider is the headless wallet: it signs locally and talks to a
// JSON-RPC endpoint. Chain switching re-dials against the registry's RPC
// URL for the target chain.
type RPCProvider struct {
	registry *netreg.Registry
	signer   signer.Signer
	opts     RPCOptions

	rpcOverride string
	client      *ethclient.Client
	chainID     int64
}

func NewRPCProvider(registry *netreg.Registry, txSigner signer.Signer, chainID int64, rpcOverride string, opts RPCOptions) *RPCProvider {
	if opts.GasMultiplier <= 1 {
		opts.GasMultiplier = 1.2
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 2 * time.Minute
	}
	return &RPCProvider{
		registry:    registry,
		signer:      txSigner,
		opts:        opts,
		rpcOverride: rpcOverride,
		chainID:     chainID,
	}
}

func (p *RPCProvider) Close() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

func (p *RPCProvider) dial(ctx context.Context) (*ethclient.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	url := strings.TrimSpace(p.rpcOverride)
	if url == "" {
		network := p.registry.Lookup(p.chainID)
		url = network.RPCURL
	}
	if url == "" {
		return nil, clierr.New(clierr.CodeProviderUnavailable, "no rpc url configured for the active chain")
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeProviderUnavailable, "connect rpc", err)
	}
	p.client = client
	return client, nil
}

// RequestAccounts returns the signer address; a headless wallet has exactly
// one account and nothing to approve.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if p.signer == nil {
		return nil, clierr.New(clierr.CodeSigner, "no signing key configured")
	}
	return []string{p.signer.Address().Hex()}, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return 0, err
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		return 0, clierr.Wrap(clierr.CodeProviderUnavailable, "read chain id", err)
	}
	p.chainID = id.Int64()
	return p.chainID, nil
}

// SwitchChain re-targets the provider at another chain's RPC endpoint.
func (p *RPCProvider) SwitchChain(ctx context.Context, chainID int64) error {
	network := p.registry.Lookup(chainID)
	if network.RPCURL == "" && strings.TrimSpace(p.rpcOverride) == "" {
		return clierr.New(clierr.CodeUnsupported, "no rpc url known for "+network.Name)
	}
	p.Close()
	p.chainID = chainID
	if _, err := p.dial(ctx); err != nil {
		return err
	}
	return nil
}

// AddChain is a no-op: the registry already knows every chain this provider
// can dial.
func (p *RPCProvider) AddChain(ctx context.Context, params netreg.AddChainParams) error {
	return nil
}

func (p *RPCProvider) SendTransaction(ctx context.Context, req TxRequest) (string, error) {
	if p.signer == nil {
		return "", clierr.New(clierr.CodeSigner, "no signing key configured")
	}
	if !common.IsHexAddress(req.To) {
		return "", clierr.New(clierr.CodeValidation, "invalid recipient address")
	}
	client, err := p.dial(ctx)
	if err != nil {
		return "", err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "read chain id", err)
	}
	target := common.HexToAddress(req.To)
	value := req.ValueWei
	if value == nil {
		value = big.NewInt(0)
	}
	msg := ethereum.CallMsg{From: p.signer.Address(), To: &target, Value: value, Data: req.Data}

	if p.opts.Simulate {
		if _, err := client.CallContract(ctx, msg, nil); err != nil {
			return "", clierr.Wrap(clierr.CodeChainTxFailed, "simulate transaction (eth_call)", err)
		}
	}

	gasLimit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeChainTxFailed, "estimate gas", err)
	}
	gasLimit = uint64(float64(gasLimit) * p.opts.GasMultiplier)

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		tipCap = big.NewInt(2_000_000_000) // 2 gwei fallback
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "fetch latest header", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	nonce, err := client.PendingNonceAt(ctx, p.signer.Address())
	if err != nil {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "fetch nonce", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &target,
		Value:     value,
		Data:      req.Data,
	})
	signed, err := p.signer.SignTx(chainID, tx)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeSigner, "sign transaction", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", clierr.Wrap(clierr.CodeProviderUnavailable, "broadcast transaction", err)
	}
	return signed.Hash().Hex(), nil
}

func (p *RPCProvider) TransactionReceipt(ctx context.Context, hash string) (ReceiptStatus, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return ReceiptPending, err
	}
	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ReceiptPending, nil
		}
		return ReceiptPending, clierr.Wrap(clierr.CodeProviderUnavailable, "fetch receipt", err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return ReceiptSuccess, nil
	}
	return ReceiptReverted, nil
}

// WaitMined polls for the receipt until it resolves or the step timeout
// expires. Transient RPC failures are ignored until the deadline.
func (p *RPCProvider) WaitMined(ctx context.Context, hash string) (ReceiptStatus, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.opts.StepTimeout)
	defer cancel()
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()
	for {
		status, err := p.TransactionReceipt(waitCtx, hash)
		if err == nil && status != ReceiptPending {
			return status, nil
		}
		select {
		case <-waitCtx.Done():
			return ReceiptPending, clierr.Wrap(clierr.CodeChainTxFailed, "timed out waiting for receipt", waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (p *RPCProvider) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeProviderUnavailable, "read balance", err)
	}
	return balance, nil
}

// Call performs a read-only contract call against the active chain.
func (p *RPCProvider) Call(ctx context.Context, to string, data []byte) ([]byte, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	target := common.HexToAddress(to)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &target, Data: data}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeProviderUnavailable, "contract call", err)
	}
	return raw, nil
}

// TokenBalance reads an ERC-20 balance with a raw eth_call.
func (p *RPCProvider) TokenBalance(ctx context.Context, token, address string) (*big.Int, error) {
	client, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	data, err := contracts.ERC20.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "pack balanceOf", err)
	}
	tokenAddr := common.HexToAddress(token)
	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeProviderUnavailable, "call balanceOf", err)
	}
	outputs, err := contracts.ERC20.Unpack("balanceOf", raw)
	if err != nil || len(outputs) == 0 {
		return nil, clierr.Wrap(clierr.CodeProviderUnavailable, "decode balanceOf", err)
	}
	balance, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, clierr.New(clierr.CodeProviderUnavailable, "unexpected balanceOf output")
	}
	return balance, nil
}
