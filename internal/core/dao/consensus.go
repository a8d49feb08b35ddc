package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// ConsensusSignalDAO upserts keyed on (contract_address, period_start)
// so re-running the Consensus Detector within the same window refines
// an existing signal instead of duplicating it (spec §4.9).
type ConsensusSignalDAO interface {
	Upsert(ctx context.Context, s *model.ConsensusSignal) error
	GetActive(ctx context.Context, contractAddress string, periodStart time.Time) (*model.ConsensusSignal, error)
	ListActive(ctx context.Context, limit, offset int) ([]model.ConsensusSignal, error)
}

type consensusSignalDAO struct{ db *gorm.DB }

func NewConsensusSignalDAO(db *gorm.DB) ConsensusSignalDAO { return &consensusSignalDAO{db: db} }

func (d *consensusSignalDAO) Upsert(ctx context.Context, s *model.ConsensusSignal) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "period_start"}},
			UpdateAll: true,
		}).
		Create(s).Error
}

func (d *consensusSignalDAO) GetActive(ctx context.Context, contractAddress string, periodStart time.Time) (*model.ConsensusSignal, error) {
	var s model.ConsensusSignal
	err := d.db.WithContext(ctx).
		Where("contract_address = ? AND period_start = ?", contractAddress, periodStart).
		First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (d *consensusSignalDAO) ListActive(ctx context.Context, limit, offset int) ([]model.ConsensusSignal, error) {
	var out []model.ConsensusSignal
	err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("detection_date DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}
