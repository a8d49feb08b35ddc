package job

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/fifo"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/scoring"
)

// Backtest runs the `backtest` CLI command (SPEC_FULL.md §6.E): replays
// the FIFO/scoring pipeline against transfer history already in the
// store and returns the resulting analytics. It performs no new
// provider I/O and persists no report artifact — backtest *reporting*
// is explicitly out of scope (spec §1 Non-goals).
type Backtest struct {
	cfg       config.ScoringConfig
	transfers dao.TransferDAO
	wallets   dao.WalletDAO
	logger    *zap.Logger
}

func NewBacktest(cfg config.ScoringConfig, transfers dao.TransferDAO, wallets dao.WalletDAO, logger *zap.Logger) *Backtest {
	return &Backtest{cfg: cfg, transfers: transfers, wallets: wallets, logger: logger}
}

// Result is the printed output of one wallet's backtest replay.
type Result struct {
	Wallet    string
	Analytics []model.TokenAnalytics
	Score     scoring.Result
}

// RunWallet replays every token this wallet has ever touched from its
// stored Transfer log. Current-price valuation is intentionally
// omitted (no provider call): remaining inventory is valued at cost,
// matching fifo.Engine's behavior when currentPrice is nil.
func (b *Backtest) RunWallet(ctx context.Context, wallet string) (Result, error) {
	w, err := b.wallets.GetByAddress(ctx, wallet)
	if err != nil || w == nil {
		return Result{}, errs.New("backtest.get_wallet", errs.KindNotFound, err)
	}

	transfers, err := b.transfers.ListByWallet(ctx, wallet)
	if err != nil {
		return Result{}, errs.New("backtest.list_transfers", errs.KindExternal, err)
	}

	byFungible := make(map[string][]model.Transfer)
	for _, t := range transfers {
		byFungible[t.FungibleID] = append(byFungible[t.FungibleID], t)
	}

	engine := fifo.New()
	var analytics []model.TokenAnalytics
	for fungibleID, txs := range byFungible {
		a, warnings := engine.Run(txs, nil)
		a.Wallet = wallet
		a.FungibleID = fungibleID
		if len(txs) > 0 {
			a.Symbol = txs[0].Symbol
		}
		for _, warn := range warnings {
			b.logger.Warn("backtest: negative inventory", zap.String("wallet", wallet), zap.String("token", fungibleID), zap.Error(warn.Err))
		}
		analytics = append(analytics, a)
	}

	return Result{
		Wallet:    wallet,
		Analytics: analytics,
		Score:     scoring.Score(b.cfg, analytics),
	}, nil
}
