package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// TransferDAO persists the append-only transfer log. Writes are plain
// GORM, not cache-through: transfers are write-once/read-many-in-bulk
// (a FIFO replay pass loads an entire wallet's history at once), so a
// per-row cache tier would only add invalidation cost without saving
// meaningful query volume.
type TransferDAO interface {
	// BatchInsert inserts transfers, silently skipping rows that
	// collide on the dedup unique index (spec §3 Transfer dedup
	// invariant) rather than failing the whole batch.
	BatchInsert(ctx context.Context, transfers []model.Transfer) error
	ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error)
	ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error)
	// UpdateInheritedCost sets the inherited cost-basis fields on
	// existing rows (migration.inheritCostBasis) — a targeted column
	// update, never a full Save, so it can't clobber PricePerToken's
	// immutability invariant (spec §3 Transfer).
	UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error
	// ReplaceHistory deletes the existing rows for (wallet, fungibleID)
	// and inserts the freshly fetched set in their place (spec §4.2
	// replace_history), used by the Live Tracker to rebuild a single
	// changed token's history instead of replaying the dedup-insert path.
	ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error
}

type transferDAO struct {
	db *gorm.DB
}

func NewTransferDAO(db *gorm.DB) TransferDAO {
	return &transferDAO{db: db}
}

func (t *transferDAO) BatchInsert(ctx context.Context, transfers []model.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}, {Name: "transaction_hash"}, {Name: "fungible_id"}},
			DoNothing: true,
		}).
		CreateInBatches(transfers, 500).Error
}

func (t *transferDAO) ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error) {
	var transfers []model.Transfer
	err := t.db.WithContext(ctx).
		Where("wallet = ?", wallet).
		Order("timestamp ASC, block_number ASC, transaction_hash ASC").
		Find(&transfers).Error
	return transfers, err
}

func (t *transferDAO) UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tr := range transfers {
			if err := tx.Model(&model.Transfer{}).
				Where("id = ?", tr.ID).
				Updates(map[string]interface{}{
					"inherited_price_per_token": tr.InheritedPricePerToken,
					"is_inherited_from_wallet":  tr.IsInheritedFromWallet,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *transferDAO) ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet = ? AND fungible_id = ?", wallet, fungibleID).Delete(&model.Transfer{}).Error; err != nil {
			return err
		}
		if len(transfers) == 0 {
			return nil
		}
		return tx.CreateInBatches(transfers, 500).Error
	})
}

func (t *transferDAO) ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error) {
	var transfers []model.Transfer
	err := t.db.WithContext(ctx).
		Where("wallet = ? AND fungible_id = ?", wallet, fungibleID).
		Order("timestamp ASC, block_number ASC, transaction_hash ASC").
		Find(&transfers).Error
	return transfers, err
}
