package model

import "time"

type AnalyticsStatus string

const (
	StatusGagnant        AnalyticsStatus = "GAGNANT"
	StatusPerdant         AnalyticsStatus = "PERDANT"
	StatusNeutre          AnalyticsStatus = "NEUTRE"
	StatusAirdropGagnant  AnalyticsStatus = "AIRDROP_GAGNANT"
)

// TokenAnalytics is the FIFO Engine's output, recomputed idempotently
// from the Transfer log per (wallet, token) (spec §3 "Token Analytics").
type TokenAnalytics struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet               string          `gorm:"column:wallet;type:varchar(128);not null;uniqueIndex:idx_analytics_wallet_fungible" json:"wallet"`
	FungibleID           string          `gorm:"column:fungible_id;type:varchar(256);not null;uniqueIndex:idx_analytics_wallet_fungible" json:"fungible_id"`
	Symbol               string          `gorm:"column:symbol;type:varchar(64)" json:"symbol"`
	TotalInvestedUSD     float64         `gorm:"column:total_invested_usd;type:decimal(24,8)" json:"total_invested_usd"`
	TotalRealizedUSD     float64         `gorm:"column:total_realized_usd;type:decimal(24,8)" json:"total_realized_usd"`
	GainsAirdrops        float64         `gorm:"column:gains_airdrops;type:decimal(24,8)" json:"gains_airdrops"`
	CurrentValueUSD      float64         `gorm:"column:current_value_usd;type:decimal(24,8)" json:"current_value_usd"`
	ProfitLossUSD        float64         `gorm:"column:profit_loss_usd;type:decimal(24,8)" json:"profit_loss_usd"`
	ROIPercentage        float64         `gorm:"column:roi_percentage;type:decimal(12,4)" json:"roi_percentage"`
	RemainingQuantity    float64         `gorm:"column:remaining_quantity;type:decimal(36,18)" json:"remaining_quantity"`
	RemainingCostBasis   float64         `gorm:"column:remaining_cost_basis;type:decimal(24,8)" json:"remaining_cost_basis"`
	WeightedAvgBuyPrice  float64         `gorm:"column:weighted_avg_buy_price;type:decimal(36,18)" json:"weighted_avg_buy_price"`
	WeightedAvgSellPrice float64         `gorm:"column:weighted_avg_sell_price;type:decimal(36,18)" json:"weighted_avg_sell_price"`
	Status               AnalyticsStatus `gorm:"column:status;type:varchar(24);not null" json:"status"`
	TotalEntries         int             `gorm:"column:total_entries" json:"total_entries"`
	TotalExits           int             `gorm:"column:total_exits" json:"total_exits"`
	TotalTransactions    int             `gorm:"column:total_transactions" json:"total_transactions"`
	FirstTransactionDate time.Time       `gorm:"column:first_transaction_date" json:"first_transaction_date"`
	LastTransactionDate  time.Time       `gorm:"column:last_transaction_date" json:"last_transaction_date"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TokenAnalytics) TableName() string { return "smartwallet.token_analytics" }
