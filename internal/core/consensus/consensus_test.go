package consensus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/model"
)

type fakeSignalDAO struct {
	existing []model.ConsensusSignal
	upserted []model.ConsensusSignal
}

func (f *fakeSignalDAO) Upsert(ctx context.Context, s *model.ConsensusSignal) error {
	f.upserted = append(f.upserted, *s)
	return nil
}

func (f *fakeSignalDAO) GetActive(ctx context.Context, contractAddress string, periodStart time.Time) (*model.ConsensusSignal, error) {
	for _, s := range f.existing {
		if s.ContractAddress == contractAddress {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeSignalDAO) ListActive(ctx context.Context, limit, offset int) ([]model.ConsensusSignal, error) {
	return f.existing, nil
}

type fakeMarketData struct {
	marketCap float64
	liquidity float64
}

func (f fakeMarketData) MarketData(ctx context.Context, chain, contract string) (float64, float64, error) {
	return f.marketCap, f.liquidity, nil
}

// buy's tier argument is the wallet's optimal threshold tier expressed
// as the USD floor itself (one of TierGrid's {3000..12000}), matching
// how job/consensus.go populates Buy.ThresholdTier from
// SmartWallet.OptimalThresholdTier — not a 1-10 grid index.
func buy(wallet, contract string, usd float64, tier int, status model.ThresholdStatus) Buy {
	return Buy{
		Wallet: wallet, ContractAddress: contract, Symbol: "TOK", Chain: "ethereum",
		InvestmentUSD: usd, Timestamp: time.Now(), ThresholdTier: tier, ThresholdStatus: status,
	}
}

// wideMcapBounds gives detectOne an effectively unbounded market-cap gate
// so tests can focus on the behavior under test instead of the mcap gate.
var wideMcapBounds = config.ConsensusConfig{McapMinUSD: 1, McapMaxUSD: 1_000_000_000_000}

func withMcapBounds(cfg config.ConsensusConfig) config.ConsensusConfig {
	cfg.McapMinUSD, cfg.McapMaxUSD = wideMcapBounds.McapMinUSD, wideMcapBounds.McapMaxUSD
	return cfg
}

func TestDetectOne_EmitsSignalWhenQuorumMet(t *testing.T) {
	signals := &fakeSignalDAO{}
	detector := New(withMcapBounds(config.ConsensusConfig{MinWhalesConsensus: 3}), signals, fakeMarketData{marketCap: 5_000_000}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 4000, 3000, model.ThresholdExceptional),
		buy("0xb", "0xtoken", 4000, 3000, model.ThresholdGood),
		buy("0xc", "0xtoken", 4000, 3000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Len(t, signals.upserted, 1)
	require.Equal(t, 3, signals.upserted[0].WhaleCount)
	require.True(t, signals.upserted[0].IsActive)
}

func TestDetectOne_SkipsBelowQuorum(t *testing.T) {
	signals := &fakeSignalDAO{}
	detector := New(withMcapBounds(config.ConsensusConfig{MinWhalesConsensus: 3}), signals, fakeMarketData{marketCap: 1}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 4000, 3000, model.ThresholdExceptional),
		buy("0xb", "0xtoken", 4000, 3000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Empty(t, signals.upserted)
}

func TestDetectOne_NoExceptionalWalletRequired(t *testing.T) {
	signals := &fakeSignalDAO{}
	detector := New(withMcapBounds(config.ConsensusConfig{MinWhalesConsensus: 3}), signals, fakeMarketData{marketCap: 1}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 4000, 3000, model.ThresholdGood),
		buy("0xb", "0xtoken", 4000, 3000, model.ThresholdGood),
		buy("0xc", "0xtoken", 4000, 3000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Len(t, signals.upserted, 1) // spec §4.9 names only a whale-count quorum, no exceptional-tier requirement
}

func TestDetectOne_SkipsStablecoin(t *testing.T) {
	signals := &fakeSignalDAO{}
	cfg := withMcapBounds(config.ConsensusConfig{MinWhalesConsensus: 2})
	cfg.Stablecoins = []string{"0xtoken"}
	detector := New(cfg, signals, fakeMarketData{marketCap: 5_000_000}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 4000, 3000, model.ThresholdExceptional),
		buy("0xb", "0xtoken", 4000, 3000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Empty(t, signals.upserted)
}

func TestDetectOne_SkipsMarketCapOutOfRange(t *testing.T) {
	signals := &fakeSignalDAO{}
	detector := New(config.ConsensusConfig{MinWhalesConsensus: 2, McapMinUSD: 100_000, McapMaxUSD: 100_000_000}, signals, fakeMarketData{marketCap: 80_000_000_000}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 4000, 3000, model.ThresholdExceptional),
		buy("0xb", "0xtoken", 4000, 3000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Empty(t, signals.upserted)
}

func TestDetectOne_SkipsWalletBelowOwnTierFloor(t *testing.T) {
	signals := &fakeSignalDAO{}
	detector := New(withMcapBounds(config.ConsensusConfig{MinWhalesConsensus: 2}), signals, fakeMarketData{marketCap: 1}, nil, zap.NewNop())

	group := []Buy{
		buy("0xa", "0xtoken", 2000, 5000, model.ThresholdExceptional), // tier floor $5,000, invested $2,000: disqualified
		buy("0xb", "0xtoken", 2000, 1000, model.ThresholdGood),
	}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Empty(t, signals.upserted) // only one wallet left qualifying, below MinWhalesConsensus
}

func TestDetectOne_SkipsAlreadyRecordedSignal(t *testing.T) {
	now := time.Now()
	signals := &fakeSignalDAO{existing: []model.ConsensusSignal{{ContractAddress: "0xtoken", PeriodStart: now}}}
	detector := New(config.ConsensusConfig{MinWhalesConsensus: 1}, signals, fakeMarketData{marketCap: 1}, nil, zap.NewNop())

	group := []Buy{buy("0xa", "0xtoken", 4000, 3000, model.ThresholdExceptional)}

	res := detector.detectOne(context.Background(), "0xtoken", group)

	require.False(t, res.Failed())
	require.Empty(t, signals.upserted)
}

func TestGroupByContract_GroupsIndependentlyOfWallet(t *testing.T) {
	buys := []Buy{
		buy("0xa", "0xtoken1", 4000, 3000, model.ThresholdGood),
		buy("0xb", "0xtoken1", 4000, 3000, model.ThresholdGood),
		buy("0xa", "0xtoken2", 4000, 3000, model.ThresholdGood),
	}

	groups := groupByContract(buys)

	require.Len(t, groups, 2)
	require.Len(t, groups["0xtoken1"], 2)
	require.Len(t, groups["0xtoken2"], 1)
}

func TestIsExceptional(t *testing.T) {
	require.True(t, isExceptional(model.ThresholdExceptional))
	require.True(t, isExceptional(model.ThresholdExcellent))
	require.False(t, isExceptional(model.ThresholdGood))
}
