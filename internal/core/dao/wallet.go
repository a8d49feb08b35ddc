package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"smartwallet/internal/core/model"
)

// WalletDAO is the read-through accessor for discovered wallets (spec
// §3 "Wallet"), grounded on the teacher's WalletDAO shape.
type WalletDAO interface {
	GetByAddress(ctx context.Context, address string) (*model.Wallet, error)
	Upsert(ctx context.Context, wallet *model.Wallet) error
	ListByDiscoveryPeriod(ctx context.Context, period string, limit, offset int) ([]*model.Wallet, error)
	ListActive(ctx context.Context, limit, offset int) ([]*model.Wallet, error)
}

type walletDAO struct {
	db    *gorm.DB
	cache *cacheLayer
}

func NewWalletDAO(db *gorm.DB, rds *redis.Client) WalletDAO {
	return &walletDAO{db: db, cache: newCacheLayer(rds, 5*time.Minute, 15*time.Minute)}
}

func cacheKeyWallet(address string) string { return fmt.Sprintf("sw:wallet:%s", address) }

func (w *walletDAO) GetByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	var wallet model.Wallet
	if w.cache.get(ctx, cacheKeyWallet(address), &wallet) {
		return &wallet, nil
	}

	err := w.db.WithContext(ctx).Where("address = ?", address).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	w.cache.set(ctx, cacheKeyWallet(address), &wallet)
	return &wallet, nil
}

func (w *walletDAO) Upsert(ctx context.Context, wallet *model.Wallet) error {
	if err := w.db.WithContext(ctx).Save(wallet).Error; err != nil {
		return err
	}
	w.cache.invalidate(ctx, cacheKeyWallet(wallet.Address))
	return nil
}

func (w *walletDAO) ListByDiscoveryPeriod(ctx context.Context, period string, limit, offset int) ([]*model.Wallet, error) {
	var wallets []*model.Wallet
	err := w.db.WithContext(ctx).
		Where("discovery_period = ?", period).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&wallets).Error
	return wallets, err
}

func (w *walletDAO) ListActive(ctx context.Context, limit, offset int) ([]*model.Wallet, error) {
	var wallets []*model.Wallet
	err := w.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("last_sync DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&wallets).Error
	return wallets, err
}
