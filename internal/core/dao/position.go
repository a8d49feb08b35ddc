package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartwallet/internal/core/model"
)

// TokenPositionDAO holds the Live Tracker's live-holdings snapshot
// (spec §3 "Token Position"), read before each refresh so the tracker
// can diff the newly fetched balance against what was last known.
type TokenPositionDAO interface {
	Get(ctx context.Context, wallet, fungibleID string) (*model.TokenPosition, error)
	Upsert(ctx context.Context, p *model.TokenPosition) error
}

type tokenPositionDAO struct{ db *gorm.DB }

func NewTokenPositionDAO(db *gorm.DB) TokenPositionDAO { return &tokenPositionDAO{db: db} }

func (d *tokenPositionDAO) Get(ctx context.Context, wallet, fungibleID string) (*model.TokenPosition, error) {
	var p model.TokenPosition
	err := d.db.WithContext(ctx).
		Where("wallet = ? AND fungible_id = ?", wallet, fungibleID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (d *tokenPositionDAO) Upsert(ctx context.Context, p *model.TokenPosition) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}, {Name: "fungible_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}
