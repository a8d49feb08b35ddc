package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/ingest"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/provider"
)

func TestDiff_NoPriorPositionAndPositiveBalanceIsNew(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 10, USDValue: 100}

	change := diff("0xwallet", b, nil, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeNew, change.ChangeType)
	require.Equal(t, 0.0, change.OldAmount)
	require.Equal(t, 10.0, change.NewAmount)
}

func TestDiff_NoPriorPositionAndZeroBalanceIsNil(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 0}

	change := diff("0xwallet", b, nil, 0.05)

	require.Nil(t, change)
}

func TestDiff_PriorOutOfPortfolioAndNewBalanceIsNew(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 5, USDValue: 50}
	prior := &model.TokenPosition{InPortfolio: false, CurrentAmount: 0}

	change := diff("0xwallet", b, prior, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeNew, change.ChangeType)
}

func TestDiff_ZeroBalanceAfterHoldingIsExit(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 0}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeExit, change.ChangeType)
	require.Equal(t, 10.0, change.OldAmount)
	require.Equal(t, 0.0, change.NewAmount)
}

func TestDiff_IncreasedBalanceBeyondDeltaIsAccumulation(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 15, USDValue: 150}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeAccumulation, change.ChangeType)
}

func TestDiff_DecreasedBalanceBeyondDeltaIsReduction(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 5, USDValue: 50}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeReduction, change.ChangeType)
}

func TestDiff_UnchangedBalanceIsNil(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 10, USDValue: 100}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.Nil(t, change)
}

func TestDiff_JitterWithinRelativeDeltaBandIsNil(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 10.001, USDValue: 100.01}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.Nil(t, change) // 0.01% move, well under the 5% band
}

func TestDiff_MoveJustOverTheDeltaBandIsClassified(t *testing.T) {
	b := provider.Balance{FungibleID: "tok", Amount: 10.6, USDValue: 106}
	prior := &model.TokenPosition{InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100}

	change := diff("0xwallet", b, prior, 0.05)

	require.NotNil(t, change)
	require.Equal(t, model.ChangeAccumulation, change.ChangeType)
}

type fakeTrackerSmartWalletDAO struct {
	elected []model.SmartWallet
}

func (f *fakeTrackerSmartWalletDAO) GetByAddress(ctx context.Context, wallet string) (*model.SmartWallet, error) {
	return nil, nil
}
func (f *fakeTrackerSmartWalletDAO) Upsert(ctx context.Context, sw *model.SmartWallet) error {
	return nil
}
func (f *fakeTrackerSmartWalletDAO) ListElected(ctx context.Context, limit, offset int) ([]model.SmartWallet, error) {
	return f.elected, nil
}

type fakeTrackerWalletDAO struct {
	existing map[string]*model.Wallet
}

func (f *fakeTrackerWalletDAO) GetByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	return f.existing[address], nil
}
func (f *fakeTrackerWalletDAO) Upsert(ctx context.Context, wallet *model.Wallet) error { return nil }
func (f *fakeTrackerWalletDAO) ListByDiscoveryPeriod(ctx context.Context, period string, limit, offset int) ([]*model.Wallet, error) {
	return nil, nil
}
func (f *fakeTrackerWalletDAO) ListActive(ctx context.Context, limit, offset int) ([]*model.Wallet, error) {
	return nil, nil
}

type fakeTrackerPositionChangeDAO struct {
	created []model.PositionChange
}

func (f *fakeTrackerPositionChangeDAO) Create(ctx context.Context, c *model.PositionChange) error {
	f.created = append(f.created, *c)
	return nil
}
func (f *fakeTrackerPositionChangeDAO) ListRecentByWallet(ctx context.Context, wallet string, limit int) ([]model.PositionChange, error) {
	return nil, nil
}

type fakeTrackerTokenPositionDAO struct {
	byKey map[string]*model.TokenPosition
}

func (f *fakeTrackerTokenPositionDAO) Get(ctx context.Context, wallet, fungibleID string) (*model.TokenPosition, error) {
	return f.byKey[wallet+"|"+fungibleID], nil
}
func (f *fakeTrackerTokenPositionDAO) Upsert(ctx context.Context, p *model.TokenPosition) error {
	return nil
}

type fakeTrackerProvider struct {
	balances map[string][]provider.Balance
}

func (f *fakeTrackerProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return f.balances[wallet], nil
}
func (f *fakeTrackerProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	return provider.TransferPage{Transfers: []provider.RawTransfer{
		{Direction: "in", Quantity: 10, QuoteUSD: floatPtr(50), TransactionHash: "0xrebuilt", Timestamp: time.Now()},
	}}, nil
}
func (f *fakeTrackerProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}

func floatPtr(v float64) *float64 { return &v }

type fakeTrackerTransferDAO struct {
	replaced map[string][]model.Transfer
}

func (f *fakeTrackerTransferDAO) BatchInsert(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeTrackerTransferDAO) ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeTrackerTransferDAO) ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeTrackerTransferDAO) UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeTrackerTransferDAO) ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error {
	if f.replaced == nil {
		f.replaced = map[string][]model.Transfer{}
	}
	f.replaced[fungibleID] = transfers
	return nil
}

type fakeTrackerAnalyticsDAO struct {
	upserted []model.TokenAnalytics
}

func (f *fakeTrackerAnalyticsDAO) Upsert(ctx context.Context, a *model.TokenAnalytics) error {
	f.upserted = append(f.upserted, *a)
	return nil
}
func (f *fakeTrackerAnalyticsDAO) ListByWallet(ctx context.Context, wallet string) ([]model.TokenAnalytics, error) {
	return nil, nil
}

type fakeTrackerResolver struct{ price *float64 }

func (f fakeTrackerResolver) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	return f.price, "fake", nil
}

func TestRun_RebuildsQualifyingChangedTokenThroughFIFO(t *testing.T) {
	smart := &fakeTrackerSmartWalletDAO{elected: []model.SmartWallet{{Wallet: "0xwallet"}}}
	wallets := &fakeTrackerWalletDAO{existing: map[string]*model.Wallet{
		"0xwallet": {Address: "0xwallet", Chain: "ethereum"},
	}}
	positions := &fakeTrackerPositionChangeDAO{}
	snapshots := &fakeTrackerTokenPositionDAO{byKey: map[string]*model.TokenPosition{
		"0xwallet|tok1": {InPortfolio: true, CurrentAmount: 10, CurrentUSDValue: 100},
	}}
	dp := &fakeTrackerProvider{balances: map[string][]provider.Balance{
		"0xwallet": {{FungibleID: "tok1", Symbol: "TOK1", Contract: "0xtok1", Amount: 20, USDValue: 1000}},
	}}
	transfers := &fakeTrackerTransferDAO{}
	analytics := &fakeTrackerAnalyticsDAO{}
	var transferDAO dao.TransferDAO = transfers
	ingestor := ingest.New(dp, transferDAO, fakeTrackerResolver{price: floatPtr(5)}, 50, zap.NewNop())

	trk := New(config.TrackingConfig{MinUSD: 0, HoursLookback: 24, RelativeDeltaPct: 0.05}, 1, smart, wallets, positions, snapshots, dp, ingestor, analytics, fakeTrackerResolver{price: floatPtr(5)}, zap.NewNop())

	results, err := trk.Run(context.Background(), Options{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Failed())
	require.Len(t, positions.created, 1)
	require.Equal(t, model.ChangeAccumulation, positions.created[0].ChangeType)
	require.Contains(t, transfers.replaced, "tok1")
	require.Len(t, analytics.upserted, 1)
	require.Equal(t, "0xwallet", analytics.upserted[0].Wallet)
	require.Equal(t, "tok1", analytics.upserted[0].FungibleID)
}
