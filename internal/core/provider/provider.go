// Package provider defines the external collaborator boundaries from
// spec §6/§9 ("Polymorphism over providers") as small, swappable
// capability interfaces so production HTTP clients and deterministic
// test fakes can both satisfy them.
package provider

import (
	"context"
	"time"
)

// Balance is one entry of a wallet's current holdings, as returned by
// the data provider (spec §6 "list balances for a wallet").
type Balance struct {
	FungibleID string
	Symbol     string
	Contract   string
	Chain      string
	Amount     float64
	USDValue   float64
	Price      float64
}

// RawTransfer is the data provider's normalized transfer event, before
// the Transfer Ingestor (C2) classifies it into a model.Transfer
// (spec §4.2).
type RawTransfer struct {
	TransactionHash     string
	FungibleID          string
	Symbol              string
	Contract            string
	Direction           string // "in" | "out"
	Quantity            float64
	QuoteUSD            *float64 // nonzero quote paid/received, nil if none
	CounterpartyAddress string
	Timestamp           time.Time
	BlockNumber         uint64
}

// Send is an outgoing transfer used by the Migration Handler (C8) to
// find candidate recipients (spec §4.2 fetch_recent_sends).
type Send struct {
	RecipientAddress string
	FungibleID       string
	Symbol           string
	Quantity         float64
	USDValue         float64
	Timestamp        time.Time
}

// TransferPage is one page of a paginated transfer history fetch,
// modeling spec §9's "coroutine-style pagination" note: the consumer
// drives the cursor and can resume a retry from it.
type TransferPage struct {
	Transfers []RawTransfer
	NextCursor string // empty when exhausted
}

// DataProvider is the on-chain data collaborator (spec §6, out of
// scope: implemented against an external API).
type DataProvider interface {
	ListBalances(ctx context.Context, wallet, chain string) ([]Balance, error)
	ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (TransferPage, error)
	ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]Send, error)
}

// EOAChecker classifies an address as an externally-owned account or a
// contract; ambiguous responses must be surfaced as an error so the
// Migration Handler rejects the candidate (spec §4.8 step 3).
type EOAChecker interface {
	IsEOA(ctx context.Context, chain, address string) (bool, error)
}

// PriceOracle resolves a current USD price for a contract (spec §4.1/§6).
// A nil price (no error) means "cannot value" and callers must fall back
// to cost-held valuation.
type PriceOracle interface {
	Price(ctx context.Context, chain, contract string) (price *float64, source string, err error)
}

// MarketDataProvider supplies the market-cap/liquidity enrichment the
// Consensus Detector (C9) needs (spec §4.9) — not named as a separate
// external system in spec §6, but required by the enrichment step; both
// original_source's DexScreener and Zerion clients serve this role
// alongside price lookups, so it is modeled as a capability on the same
// provider boundary rather than a fourth external system.
type MarketDataProvider interface {
	MarketData(ctx context.Context, chain, contract string) (marketCapUSD, liquidityUSD float64, err error)
}
