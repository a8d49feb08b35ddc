package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// WalletMigrationDAO records detected migrations (spec §4.8); the
// unique (old, new, date) index makes a duplicate detection attempt on
// the same day a no-op rather than a constraint-violation error.
type WalletMigrationDAO interface {
	Create(ctx context.Context, m *model.WalletMigration) error
	ListByOldWallet(ctx context.Context, oldWallet string) ([]model.WalletMigration, error)
	ListByNewWallet(ctx context.Context, newWallet string) ([]model.WalletMigration, error)
}

type walletMigrationDAO struct{ db *gorm.DB }

func NewWalletMigrationDAO(db *gorm.DB) WalletMigrationDAO { return &walletMigrationDAO{db: db} }

func (d *walletMigrationDAO) Create(ctx context.Context, m *model.WalletMigration) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m).Error
}

func (d *walletMigrationDAO) ListByOldWallet(ctx context.Context, oldWallet string) ([]model.WalletMigration, error) {
	var out []model.WalletMigration
	err := d.db.WithContext(ctx).Where("old_wallet = ?", oldWallet).Order("migration_date DESC").Find(&out).Error
	return out, err
}

func (d *walletMigrationDAO) ListByNewWallet(ctx context.Context, newWallet string) ([]model.WalletMigration, error) {
	var out []model.WalletMigration
	err := d.db.WithContext(ctx).Where("new_wallet = ?", newWallet).Order("migration_date DESC").Find(&out).Error
	return out, err
}
