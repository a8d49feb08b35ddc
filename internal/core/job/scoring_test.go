package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/dao"
	"smartwallet/internal/core/ingest"
	"smartwallet/internal/core/model"
	"smartwallet/internal/core/price"
	"smartwallet/internal/core/provider"
	"smartwallet/internal/core/repository"
	"smartwallet/pkg/elasticsearch"
)

// fakeNoESRepo satisfies repository.Repository returning no backing
// connections; scoring/smartwallets jobs only ever call GetESClient.
type fakeNoESRepo struct{}

func (fakeNoESRepo) GetMainRDB() repository.RedisClient    { return nil }
func (fakeNoESRepo) GetMetricsRDB() repository.RedisClient { return nil }
func (fakeNoESRepo) GetDB() repository.DBClient            { return nil }
func (fakeNoESRepo) GetMQ() repository.MQClient            { return nil }
func (fakeNoESRepo) GetEVMClient(chain string) (*ethclient.Client, bool) { return nil, false }
func (fakeNoESRepo) GetEVMClients() map[string]*ethclient.Client         { return nil }
func (fakeNoESRepo) GetSolanaClient() *rpc.Client                       { return nil }
func (fakeNoESRepo) GetESClient() *elasticsearch.Client                 { return nil }
func (fakeNoESRepo) Close() error                                      { return nil }

var _ repository.Repository = fakeNoESRepo{}

type fakeScoringTransferDAO struct {
	byWalletFungible map[string][]model.Transfer
}

func (f *fakeScoringTransferDAO) BatchInsert(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeScoringTransferDAO) ListByWallet(ctx context.Context, wallet string) ([]model.Transfer, error) {
	return nil, nil
}
func (f *fakeScoringTransferDAO) ListByWalletAndFungible(ctx context.Context, wallet, fungibleID string) ([]model.Transfer, error) {
	return f.byWalletFungible[wallet+"|"+fungibleID], nil
}
func (f *fakeScoringTransferDAO) UpdateInheritedCost(ctx context.Context, transfers []model.Transfer) error {
	return nil
}
func (f *fakeScoringTransferDAO) ReplaceHistory(ctx context.Context, wallet, fungibleID string, transfers []model.Transfer) error {
	return nil
}

type fakeScoringAnalyticsDAO struct {
	upserted []model.TokenAnalytics
}

func (f *fakeScoringAnalyticsDAO) Upsert(ctx context.Context, a *model.TokenAnalytics) error {
	f.upserted = append(f.upserted, *a)
	return nil
}
func (f *fakeScoringAnalyticsDAO) ListByWallet(ctx context.Context, wallet string) ([]model.TokenAnalytics, error) {
	return nil, nil
}

type fakeScoringQualifiedDAO struct {
	upserted []model.QualifiedWallet
}

func (f *fakeScoringQualifiedDAO) Upsert(ctx context.Context, q *model.QualifiedWallet) error {
	f.upserted = append(f.upserted, *q)
	return nil
}
func (f *fakeScoringQualifiedDAO) ListAll(ctx context.Context, limit, offset int) ([]model.QualifiedWallet, error) {
	return nil, nil
}

type fakeScoringTierDAO struct {
	upserted []model.TierPerformance
}

func (f *fakeScoringTierDAO) UpsertBatch(ctx context.Context, tiers []model.TierPerformance) error {
	f.upserted = append(f.upserted, tiers...)
	return nil
}
func (f *fakeScoringTierDAO) ListByWallet(ctx context.Context, wallet string) ([]model.TierPerformance, error) {
	return nil, nil
}
func (f *fakeScoringTierDAO) MarkOptimal(ctx context.Context, wallet string, tierUSD int) error {
	return nil
}

type fakeScoringProvider struct {
	balances map[string][]provider.Balance
}

func (f *fakeScoringProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return f.balances[wallet], nil
}
func (f *fakeScoringProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	return provider.TransferPage{}, nil
}
func (f *fakeScoringProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}

type fakeScoringResolver struct{}

func (fakeScoringResolver) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	p := 2.0
	return &p, "fake", nil
}

var _ price.Resolver = fakeScoringResolver{}

func TestScoringRun_QualifiesWalletWithProfitableHistory(t *testing.T) {
	wallets := &fakeWalletDAO{existing: map[string]*model.Wallet{
		"0xwallet": {Address: "0xwallet", Chain: "ethereum"},
	}}

	now := time.Now()
	transfers := &fakeScoringTransferDAO{byWalletFungible: map[string][]model.Transfer{
		"0xwallet|tok1": {
			{Wallet: "0xwallet", FungibleID: "tok1", Symbol: "TOK1", Direction: model.DirectionIn, ActionType: model.ActionBuy, Quantity: 100, PricePerToken: ptr(1), Timestamp: now.Add(-time.Hour)},
			{Wallet: "0xwallet", FungibleID: "tok1", Symbol: "TOK1", Direction: model.DirectionOut, ActionType: model.ActionSell, Quantity: 60, PricePerToken: ptr(3), Timestamp: now},
		},
	}}
	analytics := &fakeScoringAnalyticsDAO{}
	qualified := &fakeScoringQualifiedDAO{}
	tiers := &fakeScoringTierDAO{}
	dp := &fakeScoringProvider{balances: map[string][]provider.Balance{
		"0xwallet": {{FungibleID: "tok1", Symbol: "TOK1", Contract: "0xtok1", Amount: 40, USDValue: 80}},
	}}
	ingestor := ingest.New(dp, transfers, fakeScoringResolver{}, 100, zap.NewNop())

	cfg := config.ScoringConfig{QualifyScoreFloor: -1000, MinTradesQualified: 1}
	s := NewScoring(cfg, 2, wallets, transfers, analytics, qualified, tiers, ingestor, dp, fakeScoringResolver{}, fakeNoESRepo{}, config.ElasticsearchConfig{}, zap.NewNop())

	err := s.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, analytics.upserted, 1)
	require.Equal(t, "tok1", analytics.upserted[0].FungibleID)
	require.Len(t, qualified.upserted, 1)
	require.True(t, wallets.upserted[0].IsScored)
}

func TestScoringRun_SummarizesListBalancesFailure(t *testing.T) {
	wallets := &fakeWalletDAO{existing: map[string]*model.Wallet{
		"0xbad": {Address: "0xbad", Chain: "ethereum"},
	}}
	transfers := &fakeScoringTransferDAO{}
	analytics := &fakeScoringAnalyticsDAO{}
	qualified := &fakeScoringQualifiedDAO{}
	tiers := &fakeScoringTierDAO{}
	dp := &failingProvider{err: errors.New("provider down")}
	ingestor := ingest.New(dp, transfers, fakeScoringResolver{}, 100, zap.NewNop())

	s := NewScoring(config.ScoringConfig{}, 2, wallets, transfers, analytics, qualified, tiers, ingestor, dp, fakeScoringResolver{}, fakeNoESRepo{}, config.ElasticsearchConfig{}, zap.NewNop())

	err := s.Run(context.Background())

	require.Error(t, err)
}

type failingProvider struct{ err error }

func (f *failingProvider) ListBalances(ctx context.Context, wallet, chain string) ([]provider.Balance, error) {
	return nil, f.err
}
func (f *failingProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (provider.TransferPage, error) {
	return provider.TransferPage{}, nil
}
func (f *failingProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]provider.Send, error) {
	return nil, nil
}

var _ dao.WalletDAO = (*fakeWalletDAO)(nil)
