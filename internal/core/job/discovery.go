package job

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/seed"
)

// Discovery runs the `discovery` CLI command: pulls candidate addresses
// from the configured seed.Source for every discovery period and
// upserts a fresh Wallet row for each one not already tracked.
type Discovery struct {
	wallets dao.WalletDAO
	source  seed.Source
	logger  *zap.Logger
}

func NewDiscovery(wallets dao.WalletDAO, source seed.Source, logger *zap.Logger) *Discovery {
	return &Discovery{wallets: wallets, source: source, logger: logger}
}

var discoveryPeriods = []model.DiscoveryPeriod{
	model.DiscoveryPeriod14d, model.DiscoveryPeriod30d,
	model.DiscoveryPeriod200d, model.DiscoveryPeriod360d,
}

func (d *Discovery) Run(ctx context.Context) error {
	var results []errs.UnitResult
	for _, period := range discoveryPeriods {
		candidates, err := d.source.Candidates(ctx, period)
		if err != nil {
			return errs.New("discovery.candidates", errs.KindExternal, err)
		}
		for _, c := range candidates {
			existing, err := d.wallets.GetByAddress(ctx, c.Address)
			if err != nil {
				results = append(results, errs.UnitResult{Subject: c.Address, Err: errs.New("discovery.get_wallet", errs.KindExternal, err)})
				continue
			}
			if existing != nil {
				continue
			}
			w := &model.Wallet{
				Address:         c.Address,
				Chain:           c.Chain,
				DiscoveryPeriod: period,
				IsActive:        true,
				PeriodDetail:    c.PeriodDetail,
			}
			if err := d.wallets.Upsert(ctx, w); err != nil {
				results = append(results, errs.UnitResult{Subject: c.Address, Err: errs.New("discovery.upsert", errs.KindExternal, err)})
				continue
			}
			results = append(results, errs.UnitResult{Subject: c.Address})
		}
	}

	for _, r := range results {
		if r.Failed() {
			d.logger.Warn("discovery unit failed", zap.String("wallet", r.Subject), zap.Error(r.Err))
		}
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	d.logger.Info("discovery pass complete", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("discovery", len(results), failed)
}
