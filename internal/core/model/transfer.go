package model

import "time"

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

type ActionType string

const (
	ActionBuy         ActionType = "buy"
	ActionSell        ActionType = "sell"
	ActionAirdrop     ActionType = "airdrop"
	ActionTransferIn  ActionType = "transfer_in"
	ActionTransferOut ActionType = "transfer_out"
)

// Transfer is the append-only event log (spec §3 "Transfer").
// Deduplication invariant: unique on (wallet, transaction_hash, fungible_id).
// Immutability invariant: PricePerToken is never rewritten after insert.
type Transfer struct {
	ID                     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Wallet                 string     `gorm:"column:wallet;type:varchar(128);not null;index:idx_transfer_wallet_symbol;uniqueIndex:idx_transfer_dedup" json:"wallet"`
	TransactionHash        string     `gorm:"column:transaction_hash;type:varchar(128);not null;uniqueIndex:idx_transfer_dedup" json:"transaction_hash"`
	Symbol                 string     `gorm:"column:symbol;type:varchar(64);index:idx_transfer_wallet_symbol" json:"symbol"`
	ContractAddress        string     `gorm:"column:contract_address;type:varchar(128)" json:"contract_address"`
	FungibleID             string     `gorm:"column:fungible_id;type:varchar(256);not null;uniqueIndex:idx_transfer_dedup" json:"fungible_id"`
	Direction              Direction  `gorm:"column:direction;type:varchar(8);not null" json:"direction"`
	ActionType             ActionType `gorm:"column:action_type;type:varchar(16);not null" json:"action_type"`
	Quantity               float64    `gorm:"column:quantity;type:decimal(36,18);not null" json:"quantity"`
	PricePerToken          *float64   `gorm:"column:price_per_token;type:decimal(36,18)" json:"price_per_token"`
	InheritedPricePerToken *float64   `gorm:"column:inherited_price_per_token;type:decimal(36,18)" json:"inherited_price_per_token"`
	IsInheritedFromWallet  *string    `gorm:"column:is_inherited_from_wallet;type:varchar(128)" json:"is_inherited_from_wallet"`
	CounterpartyAddress    string     `gorm:"column:counterparty_address;type:varchar(128)" json:"counterparty_address"`
	Timestamp              time.Time  `gorm:"column:timestamp;not null" json:"timestamp"`
	BlockNumber            uint64     `gorm:"column:block_number;not null" json:"block_number"`
	CreatedAt              time.Time  `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Transfer) TableName() string { return "smartwallet.transfer" }

// EffectiveUnitCost returns the cost basis the FIFO engine must use for
// an inbound lot: the inherited price overrides the observed price
// (spec §4.3 "Cost override" — the only place inheritance is honored).
func (t Transfer) EffectiveUnitCost() *float64 {
	if t.InheritedPricePerToken != nil {
		return t.InheritedPricePerToken
	}
	return t.PricePerToken
}
