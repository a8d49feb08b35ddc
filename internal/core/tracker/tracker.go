// Package tracker implements the Live Tracker (C7): re-fetches live
// balances for elected smart wallets on a cadence, diffs against the
// stored Token Position snapshot, records Position Change rows, and for
// every token whose change clears the USD/relative-delta bar, rebuilds
// that token's transfer history and FIFO analytics in place (spec
// §4.7). Fan-out pattern grounded on
// internal/worker/job/tokan_balance.go's `conc/pool.New().WithMaxGoroutines`
// bounded-worker loop.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/fifo"
	"smartwallet/internal/core/ingest"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/price"
	"smartwallet/internal/core/provider"
)

// Options narrows a tracking pass, mirroring the `tracking-live`
// CLI flags from spec §6 (--balance-only / --transactions-only,
// --min-usd, --hours-lookback).
type Options struct {
	BalanceOnly      bool
	TransactionsOnly bool
	MinUSD           float64
	HoursLookback    int
}

type Tracker struct {
	cfg       config.TrackingConfig
	smart     dao.SmartWalletDAO
	wallets   dao.WalletDAO
	positions dao.PositionChangeDAO
	snapshots dao.TokenPositionDAO
	provider  provider.DataProvider
	ingestor  *ingest.Ingestor
	analytics dao.TokenAnalyticsDAO
	resolver  price.Resolver
	logger    *zap.Logger
	workers   int
}

func New(cfg config.TrackingConfig, workers int, smart dao.SmartWalletDAO, wallets dao.WalletDAO, positions dao.PositionChangeDAO, snapshots dao.TokenPositionDAO, dp provider.DataProvider, ingestor *ingest.Ingestor, analytics dao.TokenAnalyticsDAO, resolver price.Resolver, logger *zap.Logger) *Tracker {
	if workers <= 0 {
		workers = 8
	}
	return &Tracker{cfg: cfg, smart: smart, wallets: wallets, positions: positions, snapshots: snapshots, provider: dp, ingestor: ingestor, analytics: analytics, resolver: resolver, logger: logger, workers: workers}
}

// Run executes one tracking pass over every elected smart wallet,
// bounded by the shared worker pool size (spec §5).
func (t *Tracker) Run(ctx context.Context, opts Options) ([]errs.UnitResult, error) {
	elected, err := t.smart.ListElected(ctx, 10000, 0)
	if err != nil {
		return nil, errs.New("tracker.list_elected", errs.KindExternal, err)
	}

	minUSD := opts.MinUSD
	if minUSD == 0 {
		minUSD = t.cfg.MinUSD
	}
	lookback := opts.HoursLookback
	if lookback == 0 {
		lookback = t.cfg.HoursLookback
	}

	var mu sync.Mutex
	results := make([]errs.UnitResult, 0, len(elected))
	worker := pool.New().WithMaxGoroutines(t.workers)
	for _, sw := range elected {
		wallet := sw.Wallet
		worker.Go(func() {
			res := t.trackOne(ctx, wallet, opts, minUSD, lookback)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}
	worker.Wait()

	return results, nil
}

func (t *Tracker) trackOne(ctx context.Context, wallet string, opts Options, minUSD float64, lookback int) errs.UnitResult {
	w, err := t.wallets.GetByAddress(ctx, wallet)
	if err != nil || w == nil {
		return errs.UnitResult{Subject: wallet, Err: errs.New("tracker.get_wallet", errs.KindExternal, err)}
	}

	var changedTokens []string
	if !opts.TransactionsOnly {
		tokens, err := t.refreshBalances(ctx, wallet, w.Chain, minUSD)
		if err != nil {
			return errs.UnitResult{Subject: wallet, Err: err}
		}
		changedTokens = tokens
	} else {
		// --transactions-only assumes step 4 already ran elsewhere in
		// this cadence; recover the qualifying token set from the
		// Position Change log instead of re-diffing balances.
		tokens, err := t.recentlyChangedTokens(ctx, wallet, minUSD, lookback)
		if err != nil {
			return errs.UnitResult{Subject: wallet, Err: err}
		}
		changedTokens = tokens
	}

	if !opts.BalanceOnly {
		for _, fungibleID := range changedTokens {
			if err := t.rebuildToken(ctx, wallet, w.Chain, fungibleID); err != nil {
				return errs.UnitResult{Subject: wallet, Err: err}
			}
		}
	}

	return errs.UnitResult{Subject: wallet}
}

// recentlyChangedTokens recovers the set of tokens a prior balance-only
// pass already flagged, for a --transactions-only invocation that never
// recomputes the balance diff itself (spec §4.7 step 5 / flags note).
func (t *Tracker) recentlyChangedTokens(ctx context.Context, wallet string, minUSD float64, lookback int) ([]string, *errs.Error) {
	changes, err := t.positions.ListRecentByWallet(ctx, wallet, 500)
	if err != nil {
		return nil, errs.New("tracker.list_recent_changes", errs.KindExternal, err)
	}
	cutoff := time.Now().Add(-time.Duration(lookback) * time.Hour)
	seen := make(map[string]bool)
	var tokens []string
	for _, c := range changes {
		if c.DetectedAt.Before(cutoff) || c.NewUSDValue < minUSD || seen[c.FungibleID] {
			continue
		}
		seen[c.FungibleID] = true
		tokens = append(tokens, c.FungibleID)
	}
	return tokens, nil
}

// rebuildToken implements spec §4.7 step 5: replace_history for one
// (wallet, fungible_id), then a fresh FIFO replay over the rebuilt
// transfer set.
func (t *Tracker) rebuildToken(ctx context.Context, wallet, chain, fungibleID string) *errs.Error {
	transfers, res := t.ingestor.ReplaceHistory(ctx, wallet, chain, fungibleID)
	if res.Failed() {
		return errs.New("tracker.replace_history", errs.KindExternal, res.Err)
	}
	if len(transfers) == 0 {
		return nil
	}

	var priceDec *decimal.Decimal
	if currentPrice, _, err := t.resolver.Price(ctx, chain, transfers[0].ContractAddress); err == nil && currentPrice != nil {
		d := decimal.NewFromFloat(*currentPrice)
		priceDec = &d
	}

	analytics, _ := fifo.New().Run(transfers, priceDec)
	analytics.Wallet = wallet
	analytics.FungibleID = fungibleID
	analytics.Symbol = transfers[0].Symbol
	if err := t.analytics.Upsert(ctx, &analytics); err != nil {
		return errs.New("tracker.upsert_analytics", errs.KindExternal, err)
	}
	monitor.FIFORecomputeCount.WithLabelValues(chain).Inc()
	return nil
}

// refreshBalances runs spec §4.7 steps 1-4 and returns the fungible_ids
// whose change cleared the USD floor, the set step 5 then rebuilds.
func (t *Tracker) refreshBalances(ctx context.Context, wallet, chain string, minUSD float64) ([]string, *errs.Error) {
	balances, err := t.provider.ListBalances(ctx, wallet, chain)
	if err != nil {
		return nil, errs.New("tracker.list_balances", errs.KindExternal, err)
	}

	var changed []string
	for _, b := range balances {
		if b.USDValue < minUSD {
			continue
		}

		prior, err := t.snapshots.Get(ctx, wallet, b.FungibleID)
		if err != nil {
			return nil, errs.New("tracker.get_snapshot", errs.KindExternal, err)
		}

		change := diff(wallet, b, prior, t.cfg.RelativeDeltaPct)
		if change != nil {
			if err := t.positions.Create(ctx, change); err != nil {
				return nil, errs.New("tracker.record_change", errs.KindExternal, err)
			}
			monitor.TrackingPositionChanges.WithLabelValues(string(change.ChangeType)).Inc()
			if change.ChangeType != model.ChangeExit {
				changed = append(changed, b.FungibleID)
			}
		}

		next := &model.TokenPosition{
			Wallet:               wallet,
			FungibleID:           b.FungibleID,
			Symbol:               b.Symbol,
			ContractAddress:      b.Contract,
			Chain:                chain,
			CurrentAmount:        b.Amount,
			CurrentUSDValue:      b.USDValue,
			CurrentPricePerToken: b.Price,
			InPortfolio:          b.Amount > 0,
			LastUpdated:          time.Now(),
		}
		if err := t.snapshots.Upsert(ctx, next); err != nil {
			return nil, errs.New("tracker.upsert_snapshot", errs.KindExternal, err)
		}
	}
	return changed, nil
}

// diff classifies the transition between a wallet's prior stored
// position and its freshly fetched balance into the spec §3 Position
// Change taxonomy: NEW (no prior row or prior had dropped out of
// portfolio), EXIT (new amount is zero), ACCUMULATION/REDUCTION when
// the quantity moves by more than the relative-delta band (default 5%,
// spec §4.7 step 2) in either direction. Returns nil when nothing
// material changed.
func diff(wallet string, b provider.Balance, prior *model.TokenPosition, relDelta float64) *model.PositionChange {
	if relDelta <= 0 {
		relDelta = 0.05
	}
	switch {
	case prior == nil || !prior.InPortfolio:
		if b.Amount <= 0 {
			return nil
		}
		return &model.PositionChange{
			Wallet: wallet, FungibleID: b.FungibleID, ChangeType: model.ChangeNew,
			OldAmount: 0, NewAmount: b.Amount,
			OldUSDValue: 0, NewUSDValue: b.USDValue,
			DetectedAt: time.Now(),
		}
	case b.Amount <= 0:
		return &model.PositionChange{
			Wallet: wallet, FungibleID: b.FungibleID, ChangeType: model.ChangeExit,
			OldAmount: prior.CurrentAmount, NewAmount: 0,
			OldUSDValue: prior.CurrentUSDValue, NewUSDValue: 0,
			DetectedAt: time.Now(),
		}
	default:
		if prior.CurrentAmount == 0 {
			return nil
		}
		relChange := (b.Amount - prior.CurrentAmount) / prior.CurrentAmount
		switch {
		case relChange > relDelta:
			return &model.PositionChange{
				Wallet: wallet, FungibleID: b.FungibleID, ChangeType: model.ChangeAccumulation,
				OldAmount: prior.CurrentAmount, NewAmount: b.Amount,
				OldUSDValue: prior.CurrentUSDValue, NewUSDValue: b.USDValue,
				DetectedAt: time.Now(),
			}
		case relChange < -relDelta:
			return &model.PositionChange{
				Wallet: wallet, FungibleID: b.FungibleID, ChangeType: model.ChangeReduction,
				OldAmount: prior.CurrentAmount, NewAmount: b.Amount,
				OldUSDValue: prior.CurrentUSDValue, NewUSDValue: b.USDValue,
				DetectedAt: time.Now(),
			}
		default:
			return nil
		}
	}
}
