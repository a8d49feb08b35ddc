package provider

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"resty.dev/v3"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPClientConfig configures the base provider HTTP client, generalized
// from the teacher's single-API-key client to a rotating credential pool
// (spec §6 "providers authenticate with a pool of API keys, rotated on
// rate-limit responses").
type HTTPClientConfig struct {
	Timeout    time.Duration
	RateLimit  int // requests per minute
	MaxRetries int
	UserAgent  string
	APIKeys    []string
}

// HTTPClient is the shared base for provider implementations: rate
// limiting plus credential rotation on 429, adapted from
// pkg/httpclient.HTTPClient and pkg/moralis.MoralisClient's retry loop.
type HTTPClient struct {
	client    *resty.Client
	logger    *zap.Logger
	limiter   *rate.Limiter
	userAgent string
	keys      []string
	keyIdx    atomic.Uint32
}

func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	ratePerSecond := float64(cfg.RateLimit) / 60
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), 1)

	hc := &HTTPClient{
		logger:    logger,
		limiter:   limiter,
		userAgent: cfg.UserAgent,
		keys:      cfg.APIKeys,
	}

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
			limiterCtx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()
			if err := limiter.Wait(limiterCtx); err != nil {
				logger.Warn("provider rate limiter wait failed", zap.Error(err))
				return err
			}
			if cfg.UserAgent != "" {
				r.SetHeader("User-Agent", cfg.UserAgent)
			}
			if key := hc.currentKey(); key != "" {
				r.SetHeader("X-API-Key", key)
			}
			logger.Debug("provider outgoing request", zap.String("url", r.URL))
			return nil
		}).
		AddResponseMiddleware(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() == 429 {
				hc.rotateKey()
				logger.Warn("provider rate limited, rotating credential",
					zap.String("url", resp.Request.URL))
			} else if resp.StatusCode() >= 400 {
				logger.Warn("provider request failed",
					zap.Int("status", resp.StatusCode()),
					zap.String("url", resp.Request.URL))
			}
			return nil
		})

	hc.client = restyClient
	return hc
}

// currentKey returns the active credential, empty if none configured.
func (c *HTTPClient) currentKey() string {
	if len(c.keys) == 0 {
		return ""
	}
	return c.keys[c.keyIdx.Load()%uint32(len(c.keys))]
}

// rotateKey advances the round-robin credential pointer, grounded on
// original_source's `_rotate_api_key` behavior: move to the next key on
// a 429 rather than failing the call outright.
func (c *HTTPClient) rotateKey() {
	if len(c.keys) <= 1 {
		return
	}
	c.keyIdx.Add(1)
}

func (c *HTTPClient) GetJSON(ctx context.Context, url string, query map[string]string, out interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		Get(url)
	if err != nil {
		c.logger.Error("provider GET failed", zap.String("url", url), zap.Error(err))
		return err
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("provider non-2xx status: %d", resp.StatusCode())
	}
	return nil
}
