package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/openwallet-labs/defi-agent/internal/cache"
	"github.com/openwallet-labs/defi-agent/internal/contracts"
	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/history"
	"github.com/openwallet-labs/defi-agent/internal/ledger"
	"github.com/openwallet-labs/defi-agent/internal/model"
)

const (
	summaryTTL = time.Minute
	assetsTTL  = 30 * time.Second
)

func (s *runtimeState) newSummaryCommand() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Portfolio summary for the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			address := sess.tracker.Address()
			key := cache.SummaryKey(address)

			if !refresh {
				if data, status, ok := s.cachedSummary(key); ok {
					return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, status)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			summary, err := sess.backend.Summary(ctx, address)
			if err != nil {
				if data, status, ok := s.staleSummary(key); ok {
					warnings := []string{"backend fetch failed; serving stale summary within max-stale budget"}
					return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, warnings, status)
				}
				// Backend unreachable with no usable cache: serve the
				// simulated defaults so the console stays functional.
				fallback := model.SummaryData{
					Address:      address,
					Credits:      ledger.DefaultCredits,
					AgentBalance: ledger.DefaultBalance,
					Simulated:    true,
					FetchedAt:    s.runner.now().UTC().Format(time.RFC3339),
				}
				warnings := []string{"backend unreachable; showing simulated summary"}
				return s.emitSuccess(trimRootPath(cmd.CommandPath()), fallback, warnings, cacheMetaBypass())
			}

			cacheStatus := cacheMetaMiss()
			if s.settings.CacheEnabled && s.cache != nil {
				if payload, err := json.Marshal(summary); err == nil {
					_ = s.cache.Set(key, payload, summaryTTL)
					cacheStatus = model.CacheStatus{Status: "write"}
				}
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), summary, nil, cacheStatus)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the cache and fetch fresh data")
	return cmd
}

// cachedSummary returns a fresh cache hit, if any.
func (s *runtimeState) cachedSummary(key string) (model.SummaryData, model.CacheStatus, bool) {
	if !s.settings.CacheEnabled || s.cache == nil {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	cached, err := s.cache.Get(key, s.settings.MaxStale)
	if err != nil || !cached.Hit || cached.Stale {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	var data model.SummaryData
	if err := json.Unmarshal(cached.Value, &data); err != nil {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	return data, model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds()}, true
}

// staleSummary returns a stale entry still inside the stale budget, used
// when the fresh fetch fails.
func (s *runtimeState) staleSummary(key string) (model.SummaryData, model.CacheStatus, bool) {
	if !s.settings.CacheEnabled || s.cache == nil || s.settings.NoStale {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	cached, err := s.cache.Get(key, s.settings.MaxStale)
	if err != nil || !cached.Hit || !cached.Stale || cached.TooStale {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	var data model.SummaryData
	if err := json.Unmarshal(cached.Value, &data); err != nil {
		return model.SummaryData{}, model.CacheStatus{}, false
	}
	return data, model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds(), Stale: true}, true
}

func (s *runtimeState) newAssetsCommand() *cobra.Command {
	root := &cobra.Command{Use: "assets", Short: "Token holdings"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List native and stablecoin balances for the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			address := sess.tracker.Address()
			network := sess.tracker.Network()
			key := cache.AssetsKey(network.ChainID, address)

			if s.settings.CacheEnabled && s.cache != nil {
				if cached, err := s.cache.Get(key, s.settings.MaxStale); err == nil && cached.Hit && !cached.Stale {
					var holdings []model.AssetHolding
					if err := json.Unmarshal(cached.Value, &holdings); err == nil {
						status := model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds()}
						return s.emitSuccess(trimRootPath(cmd.CommandPath()), holdings, nil, status)
					}
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			provider := sess.tracker.Provider()
			fetchedAt := s.runner.now().UTC().Format(time.RFC3339)

			native, err := provider.BalanceAt(ctx, address)
			if err != nil {
				return clierr.Wrap(clierr.CodeProviderUnavailable, "read native balance", err)
			}
			holdings := []model.AssetHolding{{
				Symbol:          network.NativeCurrencySymbol,
				Name:            network.NativeCurrencyName,
				Decimals:        18,
				BalanceBase:     native.String(),
				BalanceDecimal:  contracts.FormatUnits(native, 18),
				Native:          true,
				ExplorerURL:     network.ExplorerAddressURL(address),
				FetchedAt:       fetchedAt,
				SimulatedSource: sess.mock,
			}}
			if network.HasStableCoin() {
				usdc, err := provider.TokenBalance(ctx, network.StableCoinAddress, address)
				if err != nil {
					return clierr.Wrap(clierr.CodeProviderUnavailable, "read usdc balance", err)
				}
				holdings = append(holdings, model.AssetHolding{
					Symbol:          "USDC",
					Name:            "USD Coin",
					Address:         network.StableCoinAddress,
					Decimals:        contracts.USDCDecimals,
					BalanceBase:     usdc.String(),
					BalanceDecimal:  contracts.FormatUnits(usdc, contracts.USDCDecimals),
					ExplorerURL:     network.ExplorerTokenURL(network.StableCoinAddress),
					FetchedAt:       fetchedAt,
					SimulatedSource: sess.mock,
				})
			}

			cacheStatus := cacheMetaMiss()
			if s.settings.CacheEnabled && s.cache != nil {
				if payload, err := json.Marshal(holdings); err == nil {
					_ = s.cache.Set(key, payload, assetsTTL)
					cacheStatus = model.CacheStatus{Status: "write"}
				}
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), holdings, nil, cacheStatus)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newTxCommand() *cobra.Command {
	root := &cobra.Command{Use: "tx", Short: "Transaction history"}
	var direction string
	var limit int
	list := &cobra.Command{
		Use:   "history",
		Short: "List recorded transactions for the connected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if direction == "all" {
				direction = ""
			}
			if direction != "" && direction != history.DirectionOutgoing && direction != history.DirectionIncoming {
				return clierr.New(clierr.CodeUsage, "--direction must be outgoing, incoming, or all")
			}
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			records, err := sess.history.List(sess.tracker.Address(), direction, limit)
			if err != nil {
				return clierr.Wrap(clierr.CodeInternal, "list history", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), records, nil, cacheMetaBypass())
		},
	}
	list.Flags().StringVar(&direction, "direction", "", "Filter by direction (outgoing|incoming|all)")
	list.Flags().IntVar(&limit, "limit", 20, "Maximum entries to return")
	root.AddCommand(list)
	return root
}
