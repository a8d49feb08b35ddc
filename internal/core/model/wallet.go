package model

import "time"

// DiscoveryPeriod is the tagged variant on wallet origin (spec §9 "Dynamic
// wallet period tag" design note) — kept as a constrained type rather than
// a free-form string so the `migration` origin is distinguishable at
// query time.
type DiscoveryPeriod string

const (
	DiscoveryPeriod14d      DiscoveryPeriod = "14d"
	DiscoveryPeriod30d      DiscoveryPeriod = "30d"
	DiscoveryPeriod200d     DiscoveryPeriod = "200d"
	DiscoveryPeriod360d     DiscoveryPeriod = "360d"
	DiscoveryPeriodManual   DiscoveryPeriod = "manual"
	DiscoveryPeriodMigrate  DiscoveryPeriod = "migration"
)

// Wallet is the root entity keyed by on-chain address (spec §3 "Wallet").
type Wallet struct {
	Address                string          `gorm:"column:address;type:varchar(128);primaryKey" json:"address"`
	Chain                  string          `gorm:"column:chain;type:varchar(32);not null" json:"chain"`
	DiscoveryPeriod        DiscoveryPeriod `gorm:"column:discovery_period;type:varchar(16);not null" json:"discovery_period"`
	TotalPortfolioValueUSD float64         `gorm:"column:total_portfolio_value_usd;type:decimal(24,8)" json:"total_portfolio_value_usd"`
	IsActive               bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsScored               bool            `gorm:"column:is_scored;not null;default:false" json:"is_scored"`
	TransactionsExtracted  bool            `gorm:"column:transactions_extracted;not null;default:false" json:"transactions_extracted"`
	LastSync               *time.Time      `gorm:"column:last_sync" json:"last_sync"`
	PeriodDetail           string          `gorm:"column:period_detail;type:text" json:"period_detail,omitempty"`
	CreatedAt              time.Time       `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Wallet) TableName() string { return "smartwallet.wallet" }

// TokenPosition is the live holdings snapshot used by the Live Tracker
// (spec §3 "Token Position"). Unique on (wallet, fungible_id).
type TokenPosition struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet               string    `gorm:"column:wallet;type:varchar(128);not null;uniqueIndex:idx_position_wallet_fungible" json:"wallet"`
	FungibleID           string    `gorm:"column:fungible_id;type:varchar(256);not null;uniqueIndex:idx_position_wallet_fungible" json:"fungible_id"`
	Symbol               string    `gorm:"column:symbol;type:varchar(64)" json:"symbol"`
	ContractAddress      string    `gorm:"column:contract_address;type:varchar(128)" json:"contract_address"`
	Chain                string    `gorm:"column:chain;type:varchar(32)" json:"chain"`
	CurrentAmount        float64   `gorm:"column:current_amount;type:decimal(36,18)" json:"current_amount"`
	CurrentUSDValue      float64   `gorm:"column:current_usd_value;type:decimal(24,8)" json:"current_usd_value"`
	CurrentPricePerToken float64   `gorm:"column:current_price_per_token;type:decimal(36,18)" json:"current_price_per_token"`
	InPortfolio          bool      `gorm:"column:in_portfolio;not null;default:true" json:"in_portfolio"`
	LastUpdated          time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (TokenPosition) TableName() string { return "smartwallet.token_position" }
