package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	core "smartwallet/internal/core"
	"smartwallet/internal/core/config"
	"smartwallet/internal/core/tracker"
	"smartwallet/pkg/logger"
)

// 子命令调度，对应 spec §6.E 的 CLI surface：
//   discovery | scoring | smartwallets | consensus | tracking-live | migration | backtest <wallet> | scheduler

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.InitConfig()
	logger.InitTrace("smartwallet", os.Args[1])
	ctx, span := logger.StartSpan(context.Background(), "main", os.Args[1])
	defer span.End()

	rootLogger := logger.NewLogger(os.Args[1])
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	go config.WatchConfig(&cfg)

	switch os.Args[1] {
	case "discovery":
		runOnce(ctx, cfg, tl, func(o *core.Orchestrator) error { return o.Discovery.Run(ctx) })
	case "scoring":
		runOnce(ctx, cfg, tl, func(o *core.Orchestrator) error { return o.Scoring.Run(ctx) })
	case "smartwallets":
		runOnce(ctx, cfg, tl, func(o *core.Orchestrator) error { return o.SmartWallets.Run(ctx) })
	case "consensus":
		runOnce(ctx, cfg, tl, func(o *core.Orchestrator) error { return o.Consensus.Run(ctx) })
	case "tracking-live":
		runTrackingLive(ctx, cfg, tl)
	case "migration":
		runOnce(ctx, cfg, tl, func(o *core.Orchestrator) error { return o.Migration.Run(ctx) })
	case "backtest":
		runBacktest(ctx, cfg, tl)
	case "scheduler":
		runScheduler(ctx, cfg, tl)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: smartwallet <discovery|scoring|smartwallets|consensus|tracking-live|migration|backtest|scheduler> [flags]")
}

// runOnce builds the full orchestrator, runs a single stage to
// completion, and exits non-zero on failure — the teacher's
// cmd/script/main.go one-shot shape generalized to every batch stage.
func runOnce(ctx context.Context, cfg config.Config, tl *zap.Logger, stage func(*core.Orchestrator) error) {
	startTime := time.Now()
	o := core.New(cfg, tl)
	defer o.Stop(ctx)

	if err := stage(o); err != nil {
		tl.Error("stage failed", zap.Error(err))
		os.Exit(1)
	}
	tl.Info("stage completed", zap.Duration("taken_time", time.Since(startTime)))
}

func runTrackingLive(ctx context.Context, cfg config.Config, tl *zap.Logger) {
	fs := flag.NewFlagSet("tracking-live", flag.ExitOnError)
	balanceOnly := fs.Bool("balance-only", false, "only diff token balances, skip transfer-derived classification")
	transactionsOnly := fs.Bool("transactions-only", false, "only inspect transfer history, skip balance snapshots")
	minUSD := fs.Float64("min-usd", 0, "ignore position changes below this USD value")
	hoursLookback := fs.Int("hours-lookback", 0, "override the configured position-change lookback window used by --transactions-only, in hours")
	fs.Parse(os.Args[2:])

	opts := tracker.Options{
		BalanceOnly:      *balanceOnly,
		TransactionsOnly: *transactionsOnly,
		MinUSD:           *minUSD,
		HoursLookback:    *hoursLookback,
	}

	startTime := time.Now()
	o := core.New(cfg, tl)
	defer o.Stop(ctx)

	o.Tracking.SetOptions(opts)
	if err := o.Tracking.Run(ctx); err != nil {
		tl.Error("tracking-live failed", zap.Error(err))
		os.Exit(1)
	}
	tl.Info("tracking-live completed", zap.Duration("taken_time", time.Since(startTime)))
}

func runBacktest(ctx context.Context, cfg config.Config, tl *zap.Logger) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: smartwallet backtest <wallet-address>")
		os.Exit(2)
	}
	wallet := fs.Arg(0)

	o := core.New(cfg, tl)
	defer o.Stop(ctx)

	result, err := o.Backtest.RunWallet(ctx, wallet)
	if err != nil {
		tl.Error("backtest failed", zap.Error(err))
		os.Exit(1)
	}
	tl.Info("backtest complete",
		zap.String("wallet", result.Wallet),
		zap.Int("tokens", len(result.Analytics)),
		zap.Float64("score", result.Score.Score),
		zap.Bool("qualifies", result.Score.Qualifies),
	)
}

func runScheduler(ctx context.Context, cfg config.Config, tl *zap.Logger) {
	o := core.New(cfg, tl)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		tl.Info("Starting smartwallet scheduler...")
		o.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, starting graceful shutdown...")

	o.Stop(ctx)
	tl.Info("Shutting down smartwallet scheduler...")
}
