package model

import (
	"time"

	"gorm.io/datatypes"
)

// TransferredToken is one entry of Wallet Migration's tokens_transferred
// list (spec §3 "Wallet Migration").
type TransferredToken struct {
	Symbol     string  `json:"symbol"`
	FungibleID string  `json:"fungible_id"`
	Quantity   float64 `json:"quantity"`
	ValueUSD   float64 `json:"value_usd"`
}

// WalletMigration records a detected cost-basis migration between two
// wallets (spec §3 "Wallet Migration" / §4.8). Unique on (old, new, date).
type WalletMigration struct {
	ID                     int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OldWallet              string         `gorm:"column:old_wallet;type:varchar(128);not null;uniqueIndex:idx_migration_old_new_date" json:"old_wallet"`
	NewWallet              string         `gorm:"column:new_wallet;type:varchar(128);not null;uniqueIndex:idx_migration_old_new_date" json:"new_wallet"`
	MigrationDate          time.Time      `gorm:"column:migration_date;not null;uniqueIndex:idx_migration_old_new_date" json:"migration_date"`
	TokensTransferred      datatypes.JSON `gorm:"column:tokens_transferred" json:"tokens_transferred"`
	TotalValueTransferred  float64        `gorm:"column:total_value_transferred;type:decimal(24,8)" json:"total_value_transferred"`
	TransferPercentage     float64        `gorm:"column:transfer_percentage;type:decimal(6,4)" json:"transfer_percentage"`
	IsValidated            bool           `gorm:"column:is_validated;not null;default:false" json:"is_validated"`
	CreatedAt              time.Time      `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (WalletMigration) TableName() string { return "smartwallet.wallet_migration" }
