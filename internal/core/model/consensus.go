package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ConsensusSignal is emitted when ≥N smart wallets buy the same token
// inside the consensus window (spec §3 "Consensus Signal" / §4.9).
type ConsensusSignal struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol           string         `gorm:"column:symbol;type:varchar(64);not null" json:"symbol"`
	ContractAddress  string         `gorm:"column:contract_address;type:varchar(128);not null;uniqueIndex:idx_consensus_contract_period" json:"contract_address"`
	Chain            string         `gorm:"column:chain;type:varchar(32)" json:"chain"`
	DetectionDate    time.Time      `gorm:"column:detection_date;not null" json:"detection_date"`
	WhaleCount       int            `gorm:"column:whale_count;not null" json:"whale_count"`
	TotalInvestment  float64        `gorm:"column:total_investment;type:decimal(24,8)" json:"total_investment"`
	FirstBuy         time.Time      `gorm:"column:first_buy;not null" json:"first_buy"`
	LastBuy          time.Time      `gorm:"column:last_buy;not null" json:"last_buy"`
	IsActive         bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	PeriodStart      time.Time      `gorm:"column:period_start;not null;uniqueIndex:idx_consensus_contract_period" json:"period_start"`
	PeriodEnd        time.Time      `gorm:"column:period_end;not null" json:"period_end"`
	WalletAddresses  pq.StringArray `gorm:"column:wallet_addresses;type:varchar(128)[]" json:"wallet_addresses"`
	WhaleDetails     datatypes.JSON `gorm:"column:whale_details" json:"whale_details"`
}

func (ConsensusSignal) TableName() string { return "smartwallet.consensus_signal" }

// WhaleDetail is one entry of ConsensusSignal.WhaleDetails, grounded on
// original_source's consensus_live_detector.py whale_details payload.
type WhaleDetail struct {
	Address              string    `json:"address"`
	ThresholdStatus       string    `json:"threshold_status"`
	QualityScore          float64   `json:"quality_score"`
	OptimalThresholdTier  int       `json:"optimal_threshold_tier"`
	OptimalROI            float64   `json:"optimal_roi"`
	OptimalWinRate        float64   `json:"optimal_winrate"`
	InvestmentUSD         float64   `json:"investment_usd"`
	TransactionCount      int       `json:"transaction_count"`
	FirstBuyDate          time.Time `json:"first_buy_date"`
	LastBuyDate           time.Time `json:"last_buy_date"`
}
