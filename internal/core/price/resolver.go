// Package price implements the Price Resolver (C1) chain described in
// SPEC_FULL.md §4.1.E: a stablecoin pin decorator wrapping a
// primary/secondary chained oracle, both backends satisfying
// provider.PriceOracle. Grounded on the teacher's primary/fallback RPC
// client selection in pkg/httpclient, generalized to prices instead of
// RPC endpoints.
package price

import (
	"context"

	"go.uber.org/zap"

	"smartwallet/internal/core/config"
	"smartwallet/internal/core/provider"
)

// Resolver is the price lookup boundary the rest of the pipeline (FIFO
// cost fallback, Live Tracker valuation, Consensus enrichment) depends
// on, never talking to a provider.PriceOracle directly.
type Resolver interface {
	Price(ctx context.Context, chain, contract string) (price *float64, source string, err error)
}

// chainedOracle tries the primary backend first and only falls through
// to the secondary when the primary either errors or can't value the
// token (spec §4.1: "a nil price is not an error").
type chainedOracle struct {
	primary   provider.PriceOracle
	secondary provider.PriceOracle
	logger    *zap.Logger
}

func newChainedOracle(primary, secondary provider.PriceOracle, logger *zap.Logger) *chainedOracle {
	return &chainedOracle{primary: primary, secondary: secondary, logger: logger}
}

func (c *chainedOracle) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	price, source, err := c.primary.Price(ctx, chain, contract)
	if err == nil && price != nil {
		return price, source, nil
	}
	if err != nil {
		c.logger.Warn("primary price oracle failed, falling back to secondary",
			zap.String("chain", chain), zap.String("contract", contract), zap.Error(err))
	}
	return c.secondary.Price(ctx, chain, contract)
}

// stablecoinPinned short-circuits the chained lookup for a configured
// set of stablecoin contracts, returning a fixed price of 1.0 without a
// network round trip (spec §4.1 "stablecoin pin").
type stablecoinPinned struct {
	stablecoins map[string]struct{}
	inner       provider.PriceOracle
}

func newStablecoinPinned(cfg config.OracleConfig, inner provider.PriceOracle) *stablecoinPinned {
	set := make(map[string]struct{}, len(cfg.Stablecoins))
	for _, s := range cfg.Stablecoins {
		set[s] = struct{}{}
	}
	return &stablecoinPinned{stablecoins: set, inner: inner}
}

func (s *stablecoinPinned) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	if _, ok := s.stablecoins[contract]; ok {
		one := 1.0
		return &one, "stablecoin_pin", nil
	}
	return s.inner.Price(ctx, chain, contract)
}

// NewResolver builds the full chain: stablecoin pin wrapping
// primary-then-secondary chained oracles.
func NewResolver(cfg config.OracleConfig, providerCfg config.ProviderConfig, logger *zap.Logger) Resolver {
	primary := provider.NewRESTProvider(config.ProviderConfig{
		BaseURL:    cfg.PrimaryBaseURL,
		RateLimit:  providerCfg.RateLimit,
		Timeout:    providerCfg.Timeout,
		MaxRetries: providerCfg.MaxRetries,
	}, cfg, logger)

	secondary := provider.NewRESTProvider(config.ProviderConfig{
		BaseURL:    cfg.SecondaryBaseURL,
		RateLimit:  providerCfg.RateLimit,
		Timeout:    providerCfg.Timeout,
		MaxRetries: providerCfg.MaxRetries,
	}, cfg, logger)

	chained := newChainedOracle(primary, secondary, logger)
	return newStablecoinPinned(cfg, chained)
}
