package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// TokenAnalyticsDAO upserts the FIFO Engine's per-(wallet,token) output
// idempotently (spec §4.3: a replay is a full recompute, not a delta).
type TokenAnalyticsDAO interface {
	Upsert(ctx context.Context, a *model.TokenAnalytics) error
	ListByWallet(ctx context.Context, wallet string) ([]model.TokenAnalytics, error)
}

type tokenAnalyticsDAO struct {
	db *gorm.DB
}

func NewTokenAnalyticsDAO(db *gorm.DB) TokenAnalyticsDAO {
	return &tokenAnalyticsDAO{db: db}
}

func (d *tokenAnalyticsDAO) Upsert(ctx context.Context, a *model.TokenAnalytics) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}, {Name: "fungible_id"}},
			UpdateAll: true,
		}).
		Create(a).Error
}

func (d *tokenAnalyticsDAO) ListByWallet(ctx context.Context, wallet string) ([]model.TokenAnalytics, error) {
	var out []model.TokenAnalytics
	err := d.db.WithContext(ctx).Where("wallet = ?", wallet).Find(&out).Error
	return out, err
}
