package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/provider"
)

type fakeWalletDAO struct {
	wallets  map[string]*model.Wallet
	upserted []model.Wallet
}

func (f *fakeWalletDAO) GetByAddress(ctx context.Context, address string) (*model.Wallet, error) {
	return f.wallets[address], nil
}
func (f *fakeWalletDAO) Upsert(ctx context.Context, wallet *model.Wallet) error {
	f.upserted = append(f.upserted, *wallet)
	return nil
}
func (f *fakeWalletDAO) ListByDiscoveryPeriod(ctx context.Context, period string, limit, offset int) ([]*model.Wallet, error) {
	return nil, nil
}
func (f *fakeWalletDAO) ListActive(ctx context.Context, limit, offset int) ([]*model.Wallet, error) {
	return nil, nil
}

type fakeMigrationDAO struct {
	created []model.WalletMigration
}

func (f *fakeMigrationDAO) Create(ctx context.Context, m *model.WalletMigration) error {
	f.created = append(f.created, *m)
	return nil
}
func (f *fakeMigrationDAO) ListByOldWallet(ctx context.Context, oldWallet string) ([]model.WalletMigration, error) {
	return nil, nil
}
func (f *fakeMigrationDAO) ListByNewWallet(ctx context.Context, newWallet string) ([]model.WalletMigration, error) {
	return nil, nil
}

type fakeTransferDAO struct {
	byWallet map[string][]model.Transfer
	updated  []model.Transfer
}

func (f *fakeTransferDAO) BatchInsert(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeTransferDAO) ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error) {
	return f.byWallet[wallet], nil
}
func (f *fakeTransferDAO) ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeTransferDAO) UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error {
	f.updated = append(f.updated, transfers...)
	return nil
}
func (f *fakeTransferDAO) ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error {
	return nil
}

type fakeProvider struct {
	sends []provider.Send
}

func (f fakeProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return nil, nil
}
func (f fakeProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	return provider.TransferPage{}, nil
}
func (f fakeProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return f.sends, nil
}

type fakeEOA struct {
	isEOA bool
}

func (f fakeEOA) IsEOA(ctx context.Context, chain, address string) (bool, error) {
	return f.isEOA, nil
}

func TestDetect_RecordsMigrationWhenThresholdClearedAndRecipientIsEOA(t *testing.T) {
	wallets := &fakeWalletDAO{wallets: map[string]*model.Wallet{
		"0xold": {Address: "0xold", Chain: "ethereum", TotalPortfolioValueUSD: 1000},
	}}
	migrations := &fakeMigrationDAO{}
	transfers := &fakeTransferDAO{byWallet: map[string][]model.Transfer{}}
	dp := fakeProvider{sends: []provider.Send{
		{RecipientAddress: "0xnew", FungibleID: "tok", Symbol: "TOK", Quantity: 10, USDValue: 800},
	}}
	eoa := fakeEOA{isEOA: true}
	cfg := config.MigrationConfig{WindowHours: 168, ValueThresholdPct: 0.70}
	handler := New(cfg, wallets, migrations, transfers, dp, eoa, zap.NewNop())

	res := handler.Detect(context.Background(), "0xold")

	require.False(t, res.Failed())
	require.Len(t, migrations.created, 1)
	require.Equal(t, "0xnew", migrations.created[0].NewWallet)
	require.Len(t, wallets.upserted, 1)
	require.Equal(t, "0xnew", wallets.upserted[0].Address)
	require.Equal(t, model.DiscoveryPeriodMigrate, wallets.upserted[0].DiscoveryPeriod)
}

func TestDetect_SkipsBelowThreshold(t *testing.T) {
	wallets := &fakeWalletDAO{wallets: map[string]*model.Wallet{
		"0xold": {Address: "0xold", Chain: "ethereum", TotalPortfolioValueUSD: 1000},
	}}
	migrations := &fakeMigrationDAO{}
	transfers := &fakeTransferDAO{}
	dp := fakeProvider{sends: []provider.Send{
		{RecipientAddress: "0xnew", USDValue: 300},
	}}
	cfg := config.MigrationConfig{WindowHours: 168, ValueThresholdPct: 0.70}
	handler := New(cfg, wallets, migrations, transfers, dp, fakeEOA{isEOA: true}, zap.NewNop())

	res := handler.Detect(context.Background(), "0xold")

	require.False(t, res.Failed())
	require.Empty(t, migrations.created)
}

func TestDetect_SkipsWhenRecipientIsContract(t *testing.T) {
	wallets := &fakeWalletDAO{wallets: map[string]*model.Wallet{
		"0xold": {Address: "0xold", Chain: "ethereum", TotalPortfolioValueUSD: 1000},
	}}
	migrations := &fakeMigrationDAO{}
	transfers := &fakeTransferDAO{}
	dp := fakeProvider{sends: []provider.Send{
		{RecipientAddress: "0xcontract", USDValue: 900},
	}}
	cfg := config.MigrationConfig{WindowHours: 168, ValueThresholdPct: 0.70}
	handler := New(cfg, wallets, migrations, transfers, dp, fakeEOA{isEOA: false}, zap.NewNop())

	res := handler.Detect(context.Background(), "0xold")

	require.False(t, res.Failed())
	require.Empty(t, migrations.created)
}

func TestDetect_NoOpWhenNoRecentSends(t *testing.T) {
	wallets := &fakeWalletDAO{wallets: map[string]*model.Wallet{
		"0xold": {Address: "0xold", Chain: "ethereum", TotalPortfolioValueUSD: 1000},
	}}
	migrations := &fakeMigrationDAO{}
	transfers := &fakeTransferDAO{}
	dp := fakeProvider{}
	cfg := config.MigrationConfig{WindowHours: 168, ValueThresholdPct: 0.70}
	handler := New(cfg, wallets, migrations, transfers, dp, fakeEOA{isEOA: true}, zap.NewNop())

	res := handler.Detect(context.Background(), "0xold")

	require.False(t, res.Failed())
	require.Empty(t, migrations.created)
}

func TestInheritCostBasis_SkipsTransfersAlreadyInherited(t *testing.T) {
	existingPrice := 5.0
	inheritedPrice := 9.0
	transfers := &fakeTransferDAO{byWallet: map[string][]model.Transfer{
		"0xold": {{Direction: model.DirectionIn, FungibleID: "tok", Quantity: 10, PricePerToken: &existingPrice}},
		"0xnew": {{Direction: model.DirectionIn, FungibleID: "tok", Quantity: 5, InheritedPricePerToken: &inheritedPrice}},
	}}
	handler := New(config.MigrationConfig{}, nil, nil, transfers, nil, nil, zap.NewNop())

	err := handler.inheritCostBasis(context.Background(), "0xold", "0xnew")

	require.Nil(t, err)
	require.Empty(t, transfers.updated)
}

func TestInheritCostBasis_OverridesAnAlreadyObservedPrice(t *testing.T) {
	existingPrice := 5.0
	observedPrice := 1.0
	transfers := &fakeTransferDAO{byWallet: map[string][]model.Transfer{
		"0xold": {{Direction: model.DirectionIn, FungibleID: "tok", Quantity: 10, PricePerToken: &existingPrice}},
		"0xnew": {{Direction: model.DirectionIn, FungibleID: "tok", Quantity: 5, PricePerToken: &observedPrice}},
	}}
	handler := New(config.MigrationConfig{}, nil, nil, transfers, nil, nil, zap.NewNop())

	err := handler.inheritCostBasis(context.Background(), "0xold", "0xnew")

	require.Nil(t, err)
	require.Len(t, transfers.updated, 1)
	require.NotNil(t, transfers.updated[0].InheritedPricePerToken)
	require.InDelta(t, existingPrice, *transfers.updated[0].InheritedPricePerToken, 0.0001)
}
