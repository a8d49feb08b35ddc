package job

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/repository"
	"smartwallet/internal/core/threshold"
	"smartwallet/internal/core/writer"
)

// SmartWallets runs the `smartwallets` CLI command: the C6 leg of the
// pipeline, electing smart wallets from every qualified wallet's Tier
// Performance rows (spec §4.6).
type SmartWallets struct {
	qualified dao.QualifiedWalletDAO
	tiers     dao.TierPerformanceDAO
	smart     dao.SmartWalletDAO
	repo      repository.Repository
	esCfg     config.ElasticsearchConfig
	workers   int
	logger    *zap.Logger
}

func NewSmartWallets(workers int, qualified dao.QualifiedWalletDAO, tiers dao.TierPerformanceDAO, smart dao.SmartWalletDAO, repo repository.Repository, esCfg config.ElasticsearchConfig, logger *zap.Logger) *SmartWallets {
	if workers <= 0 {
		workers = 8
	}
	return &SmartWallets{qualified: qualified, tiers: tiers, smart: smart, repo: repo, esCfg: esCfg, workers: workers, logger: logger}
}

func (sw *SmartWallets) Run(ctx context.Context) error {
	qualified, err := sw.qualified.ListAll(ctx, 10000, 0)
	if err != nil {
		return errs.New("smartwallets.list_qualified", errs.KindExternal, err)
	}

	var esMirror *writer.AsyncBatchWriter[model.SmartWallet]
	if esClient := sw.repo.GetESClient(); esClient != nil && sw.esCfg.SmartWalletIndex != "" {
		esWriter := writer.NewESSmartWalletWriter(esClient, sw.logger, sw.esCfg.SmartWalletIndex)
		esMirror = writer.NewAsyncBatchWriter[model.SmartWallet](sw.logger, esWriter, 500, 200*time.Millisecond, "smart_wallet_es_writer", 4)
		esMirror.Start(ctx)
		defer esMirror.Close()
	}

	var mu sync.Mutex
	var results []errs.UnitResult
	worker := pool.New().WithMaxGoroutines(sw.workers)
	for _, q := range qualified {
		wallet := q.Wallet
		worker.Go(func() {
			res := sw.electOne(ctx, wallet, esMirror)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		})
	}
	worker.Wait()

	for _, r := range results {
		if r.Failed() {
			sw.logger.Warn("smartwallets unit failed", zap.String("wallet", r.Subject), zap.Error(r.Err))
		}
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	sw.logger.Info("smartwallets pass complete", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("smartwallets", len(results), failed)
}

func (sw *SmartWallets) electOne(ctx context.Context, wallet string, esMirror *writer.AsyncBatchWriter[model.SmartWallet]) errs.UnitResult {
	tiers, err := sw.tiers.ListByWallet(ctx, wallet)
	if err != nil {
		return errs.UnitResult{Subject: wallet, Err: errs.New("smartwallets.list_tiers", errs.KindExternal, err)}
	}
	if len(tiers) == 0 {
		return errs.UnitResult{Subject: wallet}
	}

	result := threshold.Select(tiers)

	snapshot, err := sonic.Marshal(result.OptimalTier)
	if err != nil {
		return errs.UnitResult{Subject: wallet, Err: errs.New("smartwallets.marshal_snapshot", errs.KindInvalidData, err)}
	}
	globalSnapshot, err := sonic.Marshal(tiers)
	if err != nil {
		return errs.UnitResult{Subject: wallet, Err: errs.New("smartwallets.marshal_global", errs.KindInvalidData, err)}
	}

	s := &model.SmartWallet{
		Wallet:               wallet,
		OptimalThresholdTier: result.OptimalThresholdTier,
		QualityScore:         result.QualityScore,
		ThresholdStatus:      result.Status,
		JScoreMax:            result.JScoreMax,
		JScoreAvg:            result.JScoreAvg,
		ReliableTiersCount:   result.ReliableTiersCount,
		OptimalTierSnapshot:  datatypes.JSON(snapshot),
		GlobalSnapshot:       datatypes.JSON(globalSnapshot),
	}
	if err := sw.smart.Upsert(ctx, s); err != nil {
		return errs.UnitResult{Subject: wallet, Err: errs.New("smartwallets.upsert", errs.KindExternal, err)}
	}
	monitor.ThresholdSmartWalletsElected.WithLabelValues(string(result.Status)).Inc()
	if esMirror != nil {
		esMirror.Submit(*s)
	}

	if result.ReliableTiersCount > 0 {
		if err := sw.tiers.MarkOptimal(ctx, wallet, result.OptimalThresholdTier); err != nil {
			return errs.UnitResult{Subject: wallet, Err: errs.New("smartwallets.mark_optimal", errs.KindExternal, err)}
		}
	}

	return errs.UnitResult{Subject: wallet}
}
