package model

import (
	"time"

	"gorm.io/datatypes"
)

type ThresholdStatus string

const (
	ThresholdExceptional     ThresholdStatus = "EXCEPTIONAL"
	ThresholdExcellent       ThresholdStatus = "EXCELLENT"
	ThresholdGood            ThresholdStatus = "GOOD"
	ThresholdAverage         ThresholdStatus = "AVERAGE"
	ThresholdPoor            ThresholdStatus = "POOR"
	ThresholdNeutral         ThresholdStatus = "NEUTRAL"
	ThresholdNoReliableTiers ThresholdStatus = "NO_RELIABLE_TIERS"
	ThresholdManual          ThresholdStatus = "MANUAL"
	ThresholdMigration       ThresholdStatus = "MIGRATION"
)

// SmartWallet is an elected wallet (spec §3 "Smart Wallet" / §4.6).
// OptimalTierSnapshot/GlobalSnapshot are JSON snapshots of the metrics
// the Threshold Selector used to reach its decision, kept for
// inspectability without re-deriving them (see DESIGN.md).
type SmartWallet struct {
	Wallet               string          `gorm:"column:wallet;type:varchar(128);primaryKey" json:"wallet"`
	OptimalThresholdTier int             `gorm:"column:optimal_threshold_tier;not null" json:"optimal_threshold_tier"`
	QualityScore         float64         `gorm:"column:quality_score;type:decimal(6,5);not null" json:"quality_score"`
	ThresholdStatus      ThresholdStatus `gorm:"column:threshold_status;type:varchar(24);not null" json:"threshold_status"`
	JScoreMax            float64         `gorm:"column:j_score_max;type:decimal(8,5)" json:"j_score_max"`
	JScoreAvg            float64         `gorm:"column:j_score_avg;type:decimal(8,5)" json:"j_score_avg"`
	ReliableTiersCount   int             `gorm:"column:reliable_tiers_count" json:"reliable_tiers_count"`
	OptimalTierSnapshot  datatypes.JSON  `gorm:"column:optimal_tier_snapshot" json:"optimal_tier_snapshot"`
	GlobalSnapshot       datatypes.JSON  `gorm:"column:global_snapshot" json:"global_snapshot"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SmartWallet) TableName() string { return "smartwallet.smart_wallet" }

type ChangeType string

const (
	ChangeNew           ChangeType = "NEW"
	ChangeAccumulation  ChangeType = "ACCUMULATION"
	ChangeReduction     ChangeType = "REDUCTION"
	ChangeExit          ChangeType = "EXIT"
)

// PositionChange is the Live Tracker's append-only diff log (spec §3
// "Position Change" / §4.7).
type PositionChange struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet       string     `gorm:"column:wallet;type:varchar(128);not null;index" json:"wallet"`
	FungibleID   string     `gorm:"column:fungible_id;type:varchar(256);not null" json:"fungible_id"`
	ChangeType   ChangeType `gorm:"column:change_type;type:varchar(16);not null" json:"change_type"`
	OldAmount    float64    `gorm:"column:old_amount;type:decimal(36,18)" json:"old_amount"`
	NewAmount    float64    `gorm:"column:new_amount;type:decimal(36,18)" json:"new_amount"`
	OldUSDValue  float64    `gorm:"column:old_usd_value;type:decimal(24,8)" json:"old_usd_value"`
	NewUSDValue  float64    `gorm:"column:new_usd_value;type:decimal(24,8)" json:"new_usd_value"`
	DetectedAt   time.Time  `gorm:"column:detected_at;not null" json:"detected_at"`
}

func (PositionChange) TableName() string { return "smartwallet.position_change" }
