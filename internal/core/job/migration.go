package job

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/errs"
	"smartwallet/internal/core/migration"
)

// Migration runs the Migration Handler (spec §4.8) as a scheduled job
// over every elected smart wallet.
type Migration struct {
	handler *migration.Handler
	smart   dao.SmartWalletDAO
	logger  *zap.Logger
}

func NewMigration(handler *migration.Handler, smart dao.SmartWalletDAO, logger *zap.Logger) *Migration {
	return &Migration{handler: handler, smart: smart, logger: logger}
}

func (m *Migration) Run(ctx context.Context) error {
	elected, err := m.smart.ListElected(ctx, 10000, 0)
	if err != nil {
		return errs.New("migration_job.list_elected", errs.KindExternal, err)
	}

	results := make([]errs.UnitResult, 0, len(elected))
	for _, sw := range elected {
		res := m.handler.Detect(ctx, sw.Wallet)
		if res.Failed() {
			m.logger.Warn("migration unit failed", zap.String("wallet", res.Subject), zap.Error(res.Err))
		}
		results = append(results, res)
	}
	ok, byKind := errs.Tally(results)
	failed := len(results) - ok
	m.logger.Info("migration pass complete", zap.Int("total", len(elected)), zap.Int("failed", failed), zap.Any("failures_by_kind", byKind))
	return errs.Summarize("migration", len(elected), failed)
}
