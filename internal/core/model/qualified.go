package model

import "time"

type Classification string

const (
	ClassificationElite     Classification = "ELITE"
	ClassificationExcellent Classification = "EXCELLENT"
	ClassificationBon       Classification = "BON"
	ClassificationMoyen     Classification = "MOYEN"
	ClassificationFaible    Classification = "FAIBLE"
)

// QualifiedWallet is one row per wallet that passed the Scorer's
// qualification gates (spec §3 "Qualified Wallet" / §4.4).
type QualifiedWallet struct {
	Wallet         string         `gorm:"column:wallet;type:varchar(128);primaryKey" json:"wallet"`
	Score          float64        `gorm:"column:score;type:decimal(8,4);not null" json:"score"`
	WeightedROI    float64        `gorm:"column:weighted_roi;type:decimal(12,4);not null" json:"weighted_roi"`
	WinRate        float64        `gorm:"column:win_rate;type:decimal(6,4);not null" json:"win_rate"`
	TradeCount     int            `gorm:"column:trade_count;not null" json:"trade_count"`
	Classification Classification `gorm:"column:classification;type:varchar(16);not null" json:"classification"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (QualifiedWallet) TableName() string { return "smartwallet.qualified_wallet" }

// TierPerformance is one row per (wallet, tier_usd) from the Tier
// Analyzer (spec §3 "Tier Performance" / §4.5).
type TierPerformance struct {
	ID                 int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet             string  `gorm:"column:wallet;type:varchar(128);not null;uniqueIndex:idx_tier_wallet_usd" json:"wallet"`
	TierUSD            int     `gorm:"column:tier_usd;not null;uniqueIndex:idx_tier_wallet_usd" json:"tier_usd"`
	ROIPercentage      float64 `gorm:"column:roi_percentage;type:decimal(12,4)" json:"roi_percentage"`
	WinRate            float64 `gorm:"column:win_rate;type:decimal(6,4)" json:"win_rate"`
	NTrades            int     `gorm:"column:n_trades" json:"n_trades"`
	NWinners           int     `gorm:"column:n_winners" json:"n_winners"`
	NLosers            int     `gorm:"column:n_losers" json:"n_losers"`
	NNeutral           int     `gorm:"column:n_neutral" json:"n_neutral"`
	TotalInvested      float64 `gorm:"column:total_invested;type:decimal(24,8)" json:"total_invested"`
	TotalInvestedAtTier float64 `gorm:"column:total_invested_at_tier;type:decimal(24,8)" json:"total_invested_at_tier"`
	IsOptimalTier      bool    `gorm:"column:is_optimal_tier;not null;default:false" json:"is_optimal_tier"`
}

func (TierPerformance) TableName() string { return "smartwallet.tier_performance" }

// TierGrid is the fixed investment-threshold grid from spec §4.5:
// T = {3000, 4000, ..., 12000}.
var TierGrid = []int{3000, 4000, 5000, 6000, 7000, 8000, 9000, 10000, 11000, 12000}
