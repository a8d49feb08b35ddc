package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// SmartWalletDAO is read-through cached: the tracking-live command and
// the public read surface both hit GetByAddress far more often than the
// Threshold Selector writes it, matching the teacher's wallet-summary
// cache-on-hot-read rationale.
type SmartWalletDAO interface {
	GetByAddress(ctx context.Context, wallet string) (*model.SmartWallet, error)
	Upsert(ctx context.Context, sw *model.SmartWallet) error
	ListElected(ctx context.Context, limit, offset int) ([]model.SmartWallet, error)
}

type smartWalletDAO struct {
	db    *gorm.DB
	cache *cacheLayer
}

func NewSmartWalletDAO(db *gorm.DB, rds *redis.Client) SmartWalletDAO {
	return &smartWalletDAO{db: db, cache: newCacheLayer(rds, 2*time.Minute, 10*time.Minute)}
}

func cacheKeySmartWallet(wallet string) string { return fmt.Sprintf("sw:smartwallet:%s", wallet) }

func (d *smartWalletDAO) GetByAddress(ctx context.Context, wallet string) (*model.SmartWallet, error) {
	var sw model.SmartWallet
	if d.cache.get(ctx, cacheKeySmartWallet(wallet), &sw) {
		return &sw, nil
	}
	err := d.db.WithContext(ctx).Where("wallet = ?", wallet).First(&sw).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	d.cache.set(ctx, cacheKeySmartWallet(wallet), &sw)
	return &sw, nil
}

func (d *smartWalletDAO) Upsert(ctx context.Context, sw *model.SmartWallet) error {
	if err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "wallet"}}, UpdateAll: true}).
		Create(sw).Error; err != nil {
		return err
	}
	d.cache.invalidate(ctx, cacheKeySmartWallet(sw.Wallet))
	return nil
}

func (d *smartWalletDAO) ListElected(ctx context.Context, limit, offset int) ([]model.SmartWallet, error) {
	var out []model.SmartWallet
	err := d.db.WithContext(ctx).
		Where("threshold_status NOT IN ?", []model.ThresholdStatus{model.ThresholdNoReliableTiers, model.ThresholdNeutral}).
		Order("quality_score DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// PositionChangeDAO appends the Live Tracker's diff log (spec §3
// "Position Change" / §4.7); write-only from the hot path, so no cache.
type PositionChangeDAO interface {
	Create(ctx context.Context, c *model.PositionChange) error
	ListRecentByWallet(ctx context.Context, wallet string, limit int) ([]model.PositionChange, error)
}

type positionChangeDAO struct{ db *gorm.DB }

func NewPositionChangeDAO(db *gorm.DB) PositionChangeDAO { return &positionChangeDAO{db: db} }

func (d *positionChangeDAO) Create(ctx context.Context, c *model.PositionChange) error {
	return d.db.WithContext(ctx).Create(c).Error
}

func (d *positionChangeDAO) ListRecentByWallet(ctx context.Context, wallet string, limit int) ([]model.PositionChange, error) {
	var out []model.PositionChange
	err := d.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("detected_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
