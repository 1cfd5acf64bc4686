package app

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/history"
	"github.com/openwallet-labs/defi-agent/internal/model"
	"github.com/openwallet-labs/defi-agent/internal/wallet"
)

func (s *runtimeState) newWalletCommand() *cobra.Command {
	root := &cobra.Command{Use: "wallet", Short: "Wallet session"}
	status := &cobra.Command{
		Use:   "status",
		Short: "Show the connected account and network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			status := sess.tracker.Status()
			if bal, err := sess.tracker.Provider().BalanceAt(cmd.Context(), status.Address); err == nil {
				status.NativeBalance = contracts.FormatUnits(bal, 18)
				status.NativeCurrency = sess.tracker.Network().NativeCurrencySymbol
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), status, nil, cacheMetaBypass())
		},
	}
	root.AddCommand(status)
	return root
}

func (s *runtimeState) newNetworkCommand() *cobra.Command {
	root := &cobra.Command{Use: "network", Short: "Network registry"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List known networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), sess.registry.All(), nil, cacheMetaBypass())
		},
	}
	root.AddCommand(list)

	var chainArg string
	sw := &cobra.Command{
		Use:   "switch",
		Short: "Switch the wallet to another network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, err := strconv.ParseInt(chainArg, 10, 64)
			if err != nil {
				return clierr.New(clierr.CodeUsage, "chain id must be a number")
			}
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			if err := sess.tracker.SwitchOrAddNetwork(cmd.Context(), chainID); err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), sess.tracker.Status(), nil, cacheMetaBypass())
		},
	}
	sw.Flags().StringVar(&chainArg, "chain-id", "", "Target chain id")
	_ = sw.MarkFlagRequired("chain-id")
	root.AddCommand(sw)
	return root
}

// sendResult is the payload of the send command: the lifecycle snapshot plus
// the stored history entry.
type sendResult struct {
	State       string `json:"state"`
	Hash        string `json:"hash,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Recipient   string `json:"recipient"`
	AmountWei   string `json:"amount_wei"`
	Simulated   bool   `json:"simulated"`
}

func (s *runtimeState) newSendCommand() *cobra.Command {
	var recipient string
	var amount string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send native currency to an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}

			wei, err := sess.machine.Submit(recipient, amount)
			if err != nil {
				return err
			}

			rec, _ := sess.history.Record(sess.tracker.Address(), model.TransactionRecord{
				ChainID:     sess.tracker.Network().ChainID,
				Network:     sess.tracker.Network().Name,
				Direction:   history.DirectionOutgoing,
				Verb:        "send",
				Amount:      amount,
				Counterpart: recipient,
				Status:      history.StatusPending,
				Simulated:   sess.mock,
			})

			provider := sess.tracker.Provider()
			hash, err := provider.SendTransaction(cmd.Context(), wallet.TxRequest{To: recipient, ValueWei: wei})
			if err != nil {
				sess.machine.Fail("", err)
				_ = sess.history.UpdateStatus(rec.ID, history.StatusFailed, "")
				return err
			}
			sess.machine.HashReceived(hash)

			status, err := waitReceipt(cmd.Context(), provider, hash, s.settings.Timeout)
			if err != nil {
				sess.machine.Fail(hash, err)
				_ = sess.history.UpdateStatus(rec.ID, history.StatusFailed, hash)
				return err
			}
			ok := status == wallet.ReceiptSuccess
			sess.machine.ReceiptConfirmed(hash, ok)
			if ok {
				_ = sess.history.UpdateStatus(rec.ID, history.StatusConfirmed, hash)
			} else {
				_ = sess.history.UpdateStatus(rec.ID, history.StatusFailed, hash)
				return clierr.New(clierr.CodeChainTxFailed, "transaction reverted on-chain")
			}

			snap := sess.machine.Current()
			result := sendResult{
				State:       string(snap.State),
				Hash:        hash,
				ExplorerURL: sess.tracker.Network().ExplorerTxURL(hash),
				Recipient:   recipient,
				AmountWei:   wei.String(),
				Simulated:   sess.mock,
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), result, nil, cacheMetaBypass())
		},
	}
	cmd.Flags().StringVar(&recipient, "to", "", "Recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in native currency")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// waitReceipt polls until the receipt leaves pending or the budget runs out.
func waitReceipt(ctx context.Context, provider wallet.Provider, hash string, budget time.Duration) (wallet.ReceiptStatus, error) {
	if budget <= 0 {
		budget = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		status, err := provider.TransactionReceipt(ctx, hash)
		if err != nil {
			return "", err
		}
		if status != wallet.ReceiptPending {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return "", clierr.Wrap(clierr.CodeChainTxFailed, "timed out waiting for confirmation", ctx.Err())
		case <-ticker.C:
		}
	}
}
