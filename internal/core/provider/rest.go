package provider

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"smartwallet/internal/core/config"
)

// RESTProvider implements DataProvider, PriceOracle and
// MarketDataProvider against a generic balances/transfers/price REST
// API, generalized from pkg/moralis.MoralisClient's pagination loop
// (teacher's cursor/page_size walk) to the provider-agnostic shape
// spec §6 describes. Price lookups are memoized in-process for
// config.OracleConfig.CacheTTLSeconds, mirroring the teacher's dao
// in-memory cache tier (pkg/.../dao) without needing a network hop for
// prices requested repeatedly within a tracking pass.
type RESTProvider struct {
	base       *HTTPClient
	baseURL    string
	priceCache *gocache.Cache
	logger     *zap.Logger
}

func NewRESTProvider(cfg config.ProviderConfig, oracle config.OracleConfig, logger *zap.Logger) *RESTProvider {
	client := NewHTTPClient(HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: cfg.MaxRetries,
		APIKeys:    cfg.APIKeys,
	}, logger)

	ttl := time.Duration(oracle.CacheTTLSeconds) * time.Second
	return &RESTProvider{
		base:       client,
		baseURL:    cfg.BaseURL,
		priceCache: gocache.New(ttl, 2*ttl),
		logger:     logger,
	}
}

type balancesResponse struct {
	Result []Balance `json:"result"`
}

func (p *RESTProvider) ListBalances(ctx context.Context, wallet, chain string) ([]Balance, error) {
	var resp balancesResponse
	url := fmt.Sprintf("%s/wallets/%s/balances", p.baseURL, wallet)
	if err := p.base.GetJSON(ctx, url, map[string]string{"chain": chain}, &resp); err != nil {
		return nil, fmt.Errorf("list balances for %s on %s: %w", wallet, chain, err)
	}
	return resp.Result, nil
}

type transferPageResponse struct {
	Result []RawTransfer `json:"result"`
	Cursor string        `json:"cursor"`
}

func (p *RESTProvider) ListTransfers(ctx context.Context, wallet, chain, fungibleID, cursor string, pageSize int) (TransferPage, error) {
	var resp transferPageResponse
	url := fmt.Sprintf("%s/wallets/%s/transfers", p.baseURL, wallet)
	query := map[string]string{
		"chain":       chain,
		"fungible_id": fungibleID,
		"page_size":   fmt.Sprintf("%d", pageSize),
	}
	if cursor != "" {
		query["cursor"] = cursor
	}
	if err := p.base.GetJSON(ctx, url, query, &resp); err != nil {
		return TransferPage{}, fmt.Errorf("list transfers for %s on %s: %w", wallet, chain, err)
	}
	return TransferPage{Transfers: resp.Result, NextCursor: resp.Cursor}, nil
}

type sendsResponse struct {
	Result []Send `json:"result"`
}

func (p *RESTProvider) ListRecentSends(ctx context.Context, wallet, chain string, sinceHours int) ([]Send, error) {
	var resp sendsResponse
	url := fmt.Sprintf("%s/wallets/%s/sends", p.baseURL, wallet)
	query := map[string]string{
		"chain":       chain,
		"since_hours": fmt.Sprintf("%d", sinceHours),
	}
	if err := p.base.GetJSON(ctx, url, query, &resp); err != nil {
		return nil, fmt.Errorf("list recent sends for %s on %s: %w", wallet, chain, err)
	}
	return resp.Result, nil
}

type priceResponse struct {
	Price  *float64 `json:"price"`
	Source string   `json:"source"`
}

func (p *RESTProvider) Price(ctx context.Context, chain, contract string) (*float64, string, error) {
	cacheKey := chain + ":" + contract
	if cached, ok := p.priceCache.Get(cacheKey); ok {
		entry := cached.(priceResponse)
		return entry.Price, entry.Source, nil
	}

	var resp priceResponse
	url := fmt.Sprintf("%s/tokens/%s/price", p.baseURL, contract)
	if err := p.base.GetJSON(ctx, url, map[string]string{"chain": chain}, &resp); err != nil {
		return nil, "", fmt.Errorf("price lookup for %s on %s: %w", contract, chain, err)
	}
	p.priceCache.SetDefault(cacheKey, resp)
	return resp.Price, resp.Source, nil
}

type marketDataResponse struct {
	MarketCapUSD float64 `json:"market_cap_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
}

func (p *RESTProvider) MarketData(ctx context.Context, chain, contract string) (float64, float64, error) {
	var resp marketDataResponse
	url := fmt.Sprintf("%s/tokens/%s/market", p.baseURL, contract)
	if err := p.base.GetJSON(ctx, url, map[string]string{"chain": chain}, &resp); err != nil {
		return 0, 0, fmt.Errorf("market data lookup for %s on %s: %w", contract, chain, err)
	}
	return resp.MarketCapUSD, resp.LiquidityUSD, nil
}
