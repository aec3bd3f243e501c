package ratelimit

import (
	"time"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/services/carriers"
)

const (
	// backoffWindow is the window a carrier's per-minute budget is spread over
	backoffWindow = time.Minute

	defaultRequestsPerMinute = 60
)

// Governor converts a carrier's published per-minute budget into the delay
// to wait after a 429. It keeps no request counters; throttling is reactive only.
type Governor struct {
	registry *carriers.Registry
	logger   *zap.Logger
}

// NewGovernor creates a new Governor reading limits from the registry
func NewGovernor(registry *carriers.Registry, logger *zap.Logger) *Governor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Governor{
		registry: registry,
		logger:   logger,
	}
}

// BackoffFor returns 60000ms / RateLimitPerMinute for the carrier.
// No jitter and no growth between attempts.
func (g *Governor) BackoffFor(name string) (time.Duration, error) {
	cfg, err := g.registry.Resolve(name)
	if err != nil {
		return 0, err
	}

	wait := Backoff(cfg.RateLimitPerMinute)
	g.logger.Debug("Computed rate-limit backoff",
		zap.String("provider", cfg.Key()),
		zap.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
		zap.Duration("backoff", wait),
	)
	return wait, nil
}

// Backoff is the delay for a given per-minute limit. Limits <= 0 use 60/min.
func Backoff(requestsPerMinute int) time.Duration {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	return backoffWindow / time.Duration(requestsPerMinute)
}

var _ carriers.Backoff = (*Governor)(nil)
