package carriers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/internal/observability"
)

// errorExcerptLen bounds how much of a failed response body is kept on the error
const errorExcerptLen = 512

// Backoff computes how long to wait after a carrier answers 429
type Backoff interface {
	BackoffFor(name string) (time.Duration, error)
}

// Caller runs single carrier calls: resolve, send, and retry on 429 within the
// carrier's retry budget.
type Caller struct {
	registry   *Registry
	backoff    Backoff
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	clients map[string]*Client
}

// NewCaller creates a new carrier caller
func NewCaller(registry *Registry, backoff Backoff, httpClient *http.Client, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		registry:   registry,
		backoff:    backoff,
		httpClient: httpClient,
		logger:     logger,
		sleep:      sleepContext,
		clients:    make(map[string]*Client),
	}
}

// WithSleep replaces the backoff sleep, for tests
func (c *Caller) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Caller {
	c.sleep = fn
	return c
}

// Registry returns the registry the caller resolves against
func (c *Caller) Registry() *Registry {
	return c.registry
}

// Call performs one logical carrier call and returns the 2xx response body
func (c *Caller) Call(ctx context.Context, provider, method, path string, body any) ([]byte, error) {
	cfg, err := c.registry.Configured(provider)
	if err != nil {
		return nil, err
	}
	client := c.clientFor(cfg)
	name := cfg.Key()

	for retries := 0; ; retries++ {
		status, respBody, err := client.Send(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		if status >= 200 && status < 300 {
			return respBody, nil
		}

		if status != http.StatusTooManyRequests {
			return nil, NewProviderError(name, CodeProviderRequest, "provider request failed", status, fmt.Errorf("%s", excerpt(respBody)))
		}

		observability.CarrierRateLimitedTotal.WithLabelValues(name).Inc()
		if retries >= cfg.MaxRetries {
			return nil, NewProviderError(name, CodeProviderRateLimited, "provider rate limit exhausted", status, nil)
		}

		wait, err := c.backoff.BackoffFor(name)
		if err != nil {
			return nil, err
		}

		c.logger.Info("Carrier rate limited, backing off",
			zap.String("provider", name),
			zap.String("path", path),
			zap.Int("retry", retries+1),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.Duration("backoff", wait),
		)

		if err := c.sleep(ctx, wait); err != nil {
			return nil, NewProviderError(name, CodeProviderRequest, "cancelled during rate-limit backoff", status, err)
		}
	}
}

func (c *Caller) clientFor(cfg ProviderConfig) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[cfg.Key()]; ok {
		return client
	}
	client := NewClient(cfg, c.httpClient, c.logger)
	c.clients[cfg.Key()] = client
	return client
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func excerpt(body []byte) string {
	if len(body) > errorExcerptLen {
		return string(body[:errorExcerptLen]) + "..."
	}
	return string(body)
}
