package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/provider"
	"smartwallet/internal/core/tracker"
)

type fakePositionChangeDAO struct {
	created []model.PositionChange
}

func (f *fakePositionChangeDAO) Create(ctx context.Context, c *model.PositionChange) error {
	f.created = append(f.created, *c)
	return nil
}
func (f *fakePositionChangeDAO) ListRecentByWallet(ctx context.Context, wallet string, limit int) ([]model.PositionChange, error) {
	return nil, nil
}

type fakeTokenPositionDAO struct {
	byKey    map[string]*model.TokenPosition
	upserted []model.TokenPosition
}

func (f *fakeTokenPositionDAO) Get(ctx context.Context, wallet, fungibleID string) (*model.TokenPosition, error) {
	return f.byKey[wallet+"|"+fungibleID], nil
}
func (f *fakeTokenPositionDAO) Upsert(ctx context.Context, p *model.TokenPosition) error {
	f.upserted = append(f.upserted, *p)
	return nil
}

type fakeTrackingProvider struct {
	balances map[string][]provider.Balance
}

func (f *fakeTrackingProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return f.balances[wallet], nil
}
func (f *fakeTrackingProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	return provider.TransferPage{}, nil
}
func (f *fakeTrackingProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}

func TestTrackingRun_RecordsNewPositionForFreshBalance(t *testing.T) {
	smart := &fakeConsensusSmartWalletDAO{elected: []model.SmartWallet{{Wallet: "0xwallet"}}}
	wallets := &fakeWalletDAO{existing: map[string]*model.Wallet{
		"0xwallet": {Address: "0xwallet", Chain: "ethereum"},
	}}
	positions := &fakePositionChangeDAO{}
	snapshots := &fakeTokenPositionDAO{byKey: map[string]*model.TokenPosition{}}
	dp := &fakeTrackingProvider{balances: map[string][]provider.Balance{
		"0xwallet": {{FungibleID: "tok1", Symbol: "TOK1", Contract: "0xtok1", Amount: 10, USDValue: 100}},
	}}

	trk := tracker.New(config.TrackingConfig{MinUSD: 0, HoursLookback: 24}, 2, smart, wallets, positions, snapshots, dp, nil, nil, nil, zap.NewNop())
	job := NewTracking(trk, tracker.Options{BalanceOnly: true}, zap.NewNop())

	err := job.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, positions.created, 1)
	require.Equal(t, model.ChangeNew, positions.created[0].ChangeType)
	require.Len(t, snapshots.upserted, 1)
}
