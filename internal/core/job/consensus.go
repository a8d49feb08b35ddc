package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/consensus"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
)

// Consensus runs the `consensus` CLI command: collects each elected
// smart wallet's recent qualifying buys and hands them to the Consensus
// Detector (spec §4.9).
type Consensus struct {
	cfg       config.ConsensusConfig
	smart     dao.SmartWalletDAO
	wallets   dao.WalletDAO
	transfers dao.TransferDAO
	tiers     dao.TierPerformanceDAO
	detector  *consensus.Detector
	logger    *zap.Logger
}

func NewConsensus(cfg config.ConsensusConfig, smart dao.SmartWalletDAO, wallets dao.WalletDAO, transfers dao.TransferDAO, tiers dao.TierPerformanceDAO, detector *consensus.Detector, logger *zap.Logger) *Consensus {
	return &Consensus{cfg: cfg, smart: smart, wallets: wallets, transfers: transfers, tiers: tiers, detector: detector, logger: logger}
}

func (c *Consensus) Run(ctx context.Context) error {
	elected, err := c.smart.ListElected(ctx, 10000, 0)
	if err != nil {
		return errs.New("consensus.list_elected", errs.KindExternal, err)
	}

	periodDays := c.cfg.PeriodDays
	if periodDays <= 0 {
		periodDays = 2 // spec §4.9 default 48h rolling window
	}
	since := time.Now().Add(-time.Duration(periodDays) * 24 * time.Hour)

	var buys []consensus.Buy
	for _, sw := range elected {
		tierRow, err := c.optimalTier(ctx, sw)
		if err != nil {
			c.logger.Warn("consensus: skipping wallet with no optimal tier row", zap.String("wallet", sw.Wallet), zap.Error(err))
			continue
		}
		w, err := c.wallets.GetByAddress(ctx, sw.Wallet)
		if err != nil || w == nil {
			c.logger.Warn("consensus: skipping wallet with no wallet row", zap.String("wallet", sw.Wallet))
			continue
		}

		txs, err := c.transfers.ListByWallet(ctx, sw.Wallet)
		if err != nil {
			c.logger.Warn("consensus: list transfers failed", zap.String("wallet", sw.Wallet), zap.Error(err))
			continue
		}
		for _, t := range txs {
			if t.ActionType != model.ActionBuy || t.Timestamp.Before(since) {
				continue
			}
			price := 0.0
			if t.PricePerToken != nil {
				price = *t.PricePerToken
			}
			buys = append(buys, consensus.Buy{
				Wallet:          sw.Wallet,
				ContractAddress: t.ContractAddress,
				Symbol:          t.Symbol,
				Chain:           w.Chain,
				InvestmentUSD:   t.Quantity * price,
				PricePerToken:   price,
				Timestamp:       t.Timestamp,
				ThresholdTier:   sw.OptimalThresholdTier,
				QualityScore:    sw.QualityScore,
				ThresholdStatus: sw.ThresholdStatus,
				OptimalROI:      tierRow.ROIPercentage,
				OptimalWinRate:  tierRow.WinRate,
			})
		}
	}

	results, err := c.detector.Run(ctx, buys)
	if err != nil {
		return errs.New("consensus.run_detector", errs.KindExternal, err)
	}

	for _, r := range results {
		if r.Failed() {
			c.logger.Warn("consensus unit failed", zap.String("contract", r.Subject), zap.Error(r.Err))
		}
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	c.logger.Info("consensus pass complete", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("consensus", len(results), failed)
}

func (c *Consensus) optimalTier(ctx context.Context, sw model.SmartWallet) (model.TierPerformance, error) {
	rows, err := c.tiers.ListByWallet(ctx, sw.Wallet)
	if err != nil {
		return model.TierPerformance{}, err
	}
	for _, r := range rows {
		if r.TierUSD == sw.OptimalThresholdTier {
			return r, nil
		}
	}
	return model.TierPerformance{}, errs.New("consensus.no_optimal_tier_row", errs.KindNotFound, nil)
}
