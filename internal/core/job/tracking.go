package job

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/tracker"
)

// Tracking runs the `tracking-live` CLI command, wrapping tracker.Tracker
// as a scheduled job (spec §4.7) on the default cadence, or a one-shot
// CLI invocation carrying the parsed --balance-only/--min-usd flags.
type Tracking struct {
	t      *tracker.Tracker
	opts   tracker.Options
	logger *zap.Logger
}

func NewTracking(t *tracker.Tracker, opts tracker.Options, logger *zap.Logger) *Tracking {
	return &Tracking{t: t, opts: opts, logger: logger}
}

// SetOptions overrides the options used by the next Run, letting the
// tracking-live CLI subcommand forward its --balance-only/--min-usd/
// etc. flags through to a scheduler-shaped job.
func (t *Tracking) SetOptions(opts tracker.Options) {
	t.opts = opts
}

func (t *Tracking) Run(ctx context.Context) error {
	results, err := t.t.Run(ctx, t.opts)
	if err != nil {
		return errs.New("tracking.run", errs.KindExternal, err)
	}

	for _, r := range results {
		if r.Failed() {
			t.logger.Warn("tracking unit failed", zap.String("wallet", r.Subject), zap.Error(r.Err))
		}
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	t.logger.Info("tracking pass complete", zap.Int("total", len(results)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("tracking", len(results), failed)
}
