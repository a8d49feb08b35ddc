// Package core wires every domain package into a runnable process,
// generalized from the teacher's internal/worker/core.go: config → repo
// → scheduler → jobs → metrics, with the nine spec components replacing
// the teacher's kafka-consumer/smart-money jobs.
package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/consensus"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/ingest"
	"smartwallet/internal/core/job"
	"smartwallet/internal/core/migration"
	"smartwallet/internal/core/monitor"
	"smartwallet/internal/core/notify"
	"smartwallet/internal/core/price"
	"smartwallet/internal/core/provider"
	"smartwallet/internal/core/repository"
	"smartwallet/internal/core/seed"
	"smartwallet/internal/core/tracker"
)

// Orchestrator owns the scheduler and every stage job, and is the
// single thing cmd/smartwallet wires up regardless of which subcommand
// is invoked.
type Orchestrator struct {
	cfg       config.Config
	logger    *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	metrics   *monitor.MetricsServer

	Discovery    *job.Discovery
	Scoring      *job.Scoring
	SmartWallets *job.SmartWallets
	Consensus    *job.Consensus
	Tracking     *job.Tracking
	Migration    *job.Migration
	Backtest     *job.Backtest
}

// New builds every DAO, provider, and stage job and wires them into a
// scheduler, mirroring the teacher's Core constructor's linear
// init-then-register shape.
func New(cfg config.Config, logger *zap.Logger) *Orchestrator {
	repo := repository.New(cfg, logger)
	scheduler := job.NewScheduler(logger)

	walletDAO := dao.NewWalletDAO(repo.GetDB(), repo.GetMainRDB())
	transferDAO := dao.NewTransferDAO(repo.GetDB())
	analyticsDAO := dao.NewTokenAnalyticsDAO(repo.GetDB())
	qualifiedDAO := dao.NewQualifiedWalletDAO(repo.GetDB())
	tierDAO := dao.NewTierPerformanceDAO(repo.GetDB())
	smartDAO := dao.NewSmartWalletDAO(repo.GetDB(), repo.GetMainRDB())
	positionChangeDAO := dao.NewPositionChangeDAO(repo.GetDB())
	tokenPositionDAO := dao.NewTokenPositionDAO(repo.GetDB())
	migrationDAO := dao.NewWalletMigrationDAO(repo.GetDB())
	consensusDAO := dao.NewConsensusSignalDAO(repo.GetDB())

	dataProvider := provider.NewRESTProvider(cfg.Provider, cfg.Oracle, logger)
	eoaChecker := provider.NewChainEOAChecker(repo.GetEVMClients(), repo.GetSolanaClient())
	resolver := price.NewResolver(cfg.Oracle, cfg.Provider, logger)

	ingestor := ingest.New(dataProvider, transferDAO, resolver, cfg.Provider.PageSize, logger)

	sink := notify.NewConsensusSink(repo.GetMQ(), cfg.Kafka.TopicConsensus, logger)
	detector := consensus.New(cfg.Consensus, consensusDAO, dataProvider, sink, logger)

	seedSource := seed.NewStaticSource(nil)

	trackerInstance := tracker.New(cfg.Tracking, cfg.Worker.WorkerNum, smartDAO, walletDAO, positionChangeDAO, tokenPositionDAO, dataProvider, ingestor, analyticsDAO, resolver, logger)
	migrationHandler := migration.New(cfg.Migration, walletDAO, migrationDAO, transferDAO, dataProvider, eoaChecker, logger)

	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		repo:      repo,
		scheduler: scheduler,
		metrics:   monitor.NewMetricsServer(cfg.Monitor),

		Discovery:    job.NewDiscovery(walletDAO, seedSource, logger),
		Scoring:      job.NewScoring(cfg.Scoring, cfg.Worker.WorkerNum, walletDAO, transferDAO, analyticsDAO, qualifiedDAO, tierDAO, ingestor, dataProvider, resolver, repo, cfg.Elasticsearch, logger),
		SmartWallets: job.NewSmartWallets(cfg.Worker.WorkerNum, qualifiedDAO, tierDAO, smartDAO, repo, cfg.Elasticsearch, logger),
		Consensus:    job.NewConsensus(cfg.Consensus, smartDAO, walletDAO, transferDAO, tierDAO, detector, logger),
		Tracking:     job.NewTracking(trackerInstance, tracker.Options{}, logger),
		Migration:    job.NewMigration(migrationHandler, smartDAO, logger),
		Backtest:     job.NewBacktest(cfg.Scoring, transferDAO, walletDAO, logger),
	}

	hours := func(h int, fallback int) time.Duration {
		if h <= 0 {
			h = fallback
		}
		return time.Duration(h) * time.Hour
	}

	scheduler.RegisterJob("discovery", hours(0, 24), o.Discovery.Run)
	scheduler.RegisterJob("scoring", hours(0, 6), o.Scoring.Run)
	scheduler.RegisterJob("smartwallets", hours(0, 6), o.SmartWallets.Run)
	scheduler.RegisterJob("consensus", hours(cfg.Consensus.UpdateIntervalHours, 1), o.Consensus.Run)
	scheduler.RegisterJob("tracking_live", hours(cfg.Tracking.IntervalHours, 2), o.Tracking.Run)
	scheduler.RegisterJob("migration", hours(cfg.Tracking.IntervalHours, 2), o.Migration.Run)

	return o
}

// Start runs the scheduler and metrics server until ctx is cancelled,
// used by the `scheduler` CLI subcommand (spec §6.E).
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.Info("starting smart wallet orchestrator")
	if o.metrics != nil {
		o.metrics.Run()
	}
	o.scheduler.Start(ctx)
	<-ctx.Done()
	o.logger.Info("orchestrator context cancelled, shutting down")
}

func (o *Orchestrator) Stop(ctx context.Context) {
	o.logger.Info("stopping smart wallet orchestrator")
	o.scheduler.Stop(ctx)
	if o.metrics != nil {
		o.metrics.Stop(ctx)
	}
	o.repo.Close()
}
