package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// QualifiedWalletDAO and TierPerformanceDAO upsert the Scorer's and
// Tier Analyzer's outputs (spec §4.4/§4.5) — small, full-replace rows
// recomputed per scoring pass, so plain upsert-on-conflict suffices
// without a cache tier.
type QualifiedWalletDAO interface {
	Upsert(ctx context.Context, q *model.QualifiedWallet) error
	ListAll(ctx context.Context, limit, offset int) ([]model.QualifiedWallet, error)
}

type TierPerformanceDAO interface {
	UpsertBatch(ctx context.Context, tiers []model.TierPerformance) error
	ListByWallet(ctx context.Context, wallet string) ([]model.TierPerformance, error)
	MarkOptimal(ctx context.Context, wallet string, tierUSD int) error
}

type qualifiedWalletDAO struct{ db *gorm.DB }

func NewQualifiedWalletDAO(db *gorm.DB) QualifiedWalletDAO { return &qualifiedWalletDAO{db: db} }

func (d *qualifiedWalletDAO) Upsert(ctx context.Context, q *model.QualifiedWallet) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "wallet"}}, UpdateAll: true}).
		Create(q).Error
}

func (d *qualifiedWalletDAO) ListAll(ctx context.Context, limit, offset int) ([]model.QualifiedWallet, error) {
	var out []model.QualifiedWallet
	err := d.db.WithContext(ctx).Order("score DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

type tierPerformanceDAO struct{ db *gorm.DB }

func NewTierPerformanceDAO(db *gorm.DB) TierPerformanceDAO { return &tierPerformanceDAO{db: db} }

func (d *tierPerformanceDAO) UpsertBatch(ctx context.Context, tiers []model.TierPerformance) error {
	if len(tiers) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}, {Name: "tier_usd"}},
			UpdateAll: true,
		}).
		CreateInBatches(tiers, 500).Error
}

func (d *tierPerformanceDAO) ListByWallet(ctx context.Context, wallet string) ([]model.TierPerformance, error) {
	var out []model.TierPerformance
	err := d.db.WithContext(ctx).Where("wallet = ?", wallet).Order("tier_usd ASC").Find(&out).Error
	return out, err
}

func (d *tierPerformanceDAO) MarkOptimal(ctx context.Context, wallet string, tierUSD int) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TierPerformance{}).
			Where("wallet = ?", wallet).
			Update("is_optimal_tier", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.TierPerformance{}).
			Where("wallet = ? AND tier_usd = ?", wallet, tierUSD).
			Update("is_optimal_tier", true).Error
	})
}
