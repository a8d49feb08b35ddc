package job

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
	"smartwallet/internal/core/repository"
	"smartwallet/internal/core/scoring"
	"smartwallet/internal/core/tier"
	"smartwallet/internal/core/writer"
)

// Scoring runs the `scoring` CLI command: the C2→C3→C4→C5 leg of the
// pipeline (ingest → FIFO replay → Scorer → Tier Analyzer) for every
// active wallet returned by ListActive; already-scored wallets are not
// filtered out and are re-scored, and each pass sets IsScored (spec §2
// dataflow).
type Scoring struct {
	cfg        config.ScoringConfig
	wallets    dao.WalletDAO
	transfers  dao.TransferDAO
	analytics  dao.TokenAnalyticsDAO
	qualified  dao.QualifiedWalletDAO
	tiers      dao.TierPerformanceDAO
	ingestor   *ingest.Ingestor
	dp         provider.DataProvider
	resolver   price.Resolver
	repo       repository.Repository
	esCfg      config.ElasticsearchConfig
	workers    int
	logger     *zap.Logger
}

func NewScoring(cfg config.ScoringConfig, workers int, wallets dao.WalletDAO, transfers dao.TransferDAO, analytics dao.TokenAnalyticsDAO, qualified dao.QualifiedWalletDAO, tiers dao.TierPerformanceDAO, ingestor *ingest.Ingestor, dp provider.DataProvider, resolver price.Resolver, repo repository.Repository, esCfg config.ElasticsearchConfig, logger *zap.Logger) *Scoring {
	if workers <= 0 {
		workers = 8
	}
	return &Scoring{cfg: cfg, wallets: wallets, transfers: transfers, analytics: analytics, qualified: qualified, tiers: tiers, ingestor: ingestor, dp: dp, resolver: resolver, repo: repo, esCfg: esCfg, workers: workers, logger: logger}
}

func (s *Scoring) Run(ctx context.Context) error {
	active, err := s.wallets.ListActive(ctx, 10000, 0)
	if err != nil {
		return errs.New("scoring.list_active", errs.KindExternal, err)
	}

	var esMirror *writer.AsyncBatchWriter[model.QualifiedWallet]
	if esClient := s.repo.GetESClient(); esClient != nil && s.esCfg.QualifiedWalletIndex != "" {
		esWriter := writer.NewESQualifiedWalletWriter(esClient, s.logger, s.esCfg.QualifiedWalletIndex)
		esMirror = writer.NewAsyncBatchWriter[model.QualifiedWallet](s.logger, esWriter, 500, 200*time.Millisecond, "qualified_wallet_es_writer", 4)
		esMirror.Start(ctx)
		defer esMirror.Close()
	}

	var mu sync.Mutex
	var results []errs.UnitResult
	worker := pool.New().WithMaxGoroutines(s.workers)
	for _, w := range active {
		wallet := w
		worker.Go(func() {
			res := s.scoreOne(ctx, wallet, esMirror)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}
	worker.Wait()

	for _, r := range results {
		if r.Failed() {
			s.logger.Warn("scoring unit failed", zap.String("wallet", r.Subject), zap.Error(r.Err))
		}
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	s.logger.Info("scoring pass complete", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("scoring", len(results), failed)
}

func (s *Scoring) scoreOne(ctx context.Context, w *model.Wallet, esMirror *writer.AsyncBatchWriter[model.QualifiedWallet]) errs.UnitResult {
	balances, err := s.dp.ListBalances(ctx, w.Address, w.Chain)
	if err != nil {
		return errs.UnitResult{Subject: w.Address, Err: errs.New("scoring.list_balances", errs.KindTransient, err)}
	}
	fungibleIDs := make([]string, 0, len(balances))
	for _, b := range balances {
		fungibleIDs = append(fungibleIDs, b.FungibleID)
	}

	if res := s.ingestor.IngestWallet(ctx, w.Address, w.Chain, fungibleIDs); res.Failed() {
		return res
	}

	engine := fifo.New()
	var analytics []model.TokenAnalytics
	for _, b := range balances {
		start := time.Now()
		transfers, err := s.transfersFor(ctx, w.Address, b.FungibleID)
		if err != nil {
			return errs.UnitResult{Subject: w.Address, Err: err}
		}
		if len(transfers) == 0 {
			continue
		}

		currentPrice, _, priceErr := s.resolver.Price(ctx, w.Chain, b.Contract)
		var priceDec *decimal.Decimal
		if priceErr == nil && currentPrice != nil {
			d := decimal.NewFromFloat(*currentPrice)
			priceDec = &d
		}

		a, warnings := engine.Run(transfers, priceDec)
		a.Wallet = w.Address
		a.FungibleID = b.FungibleID
		a.Symbol = b.Symbol
		monitor.FIFORecomputeCount.WithLabelValues(w.Chain).Inc()
		monitor.FIFOReplayDuration.WithLabelValues(w.Chain).Observe(time.Since(start).Seconds())
		if len(warnings) > 0 {
			monitor.FIFOOverflowLots.WithLabelValues(w.Chain).Add(float64(len(warnings)))
		}

		if err := s.analytics.Upsert(ctx, &a); err != nil {
			return errs.UnitResult{Subject: w.Address, Err: errs.New("scoring.upsert_analytics", errs.KindExternal, err)}
		}
		analytics = append(analytics, a)
	}

	if len(analytics) == 0 {
		return errs.UnitResult{Subject: w.Address}
	}

	result := scoring.Score(s.cfg, analytics)
	if result.Qualifies {
		q := &model.QualifiedWallet{
			Wallet:         w.Address,
			Score:          result.Score,
			WeightedROI:    result.WeightedROI,
			WinRate:        result.WinRate,
			TradeCount:     result.TradeCount,
			Classification: result.Classification,
		}
		if err := s.qualified.Upsert(ctx, q); err != nil {
			return errs.UnitResult{Subject: w.Address, Err: errs.New("scoring.upsert_qualified", errs.KindExternal, err)}
		}
		monitor.ScoringQualifiedWallets.WithLabelValues(string(w.DiscoveryPeriod)).Inc()
		if esMirror != nil {
			esMirror.Submit(*q)
		}

		tiers := tier.Analyze(w.Address, analytics)
		if err := s.tiers.UpsertBatch(ctx, tiers); err != nil {
			return errs.UnitResult{Subject: w.Address, Err: errs.New("scoring.upsert_tiers", errs.KindExternal, err)}
		}
	}

	w.IsScored = true
	if err := s.wallets.Upsert(ctx, w); err != nil {
		return errs.UnitResult{Subject: w.Address, Err: errs.New("scoring.mark_scored", errs.KindExternal, err)}
	}

	return errs.UnitResult{Subject: w.Address}
}

func (s *Scoring) transfersFor(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, *errs.Error) {
	transfers, err := s.transfers.ListByWalletAndFungible(ctx, wallet, fungibleID)
	if err != nil {
		return nil, errs.New("scoring.list_transfers", errs.KindExternal, err)
	}
	return transfers, nil
}
