package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/upb/quote-gateway/internal/observability"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
)

const quotePath = "/quotes"

// SlotStatus classifies how one fan-out slot ended
type SlotStatus string

const (
	SlotSucceeded    SlotStatus = "succeeded"
	SlotFailed       SlotStatus = "failed"
	SlotUnconfigured SlotStatus = "unconfigured"
	SlotUnknown      SlotStatus = "unknown"
)

// SlotOutcome describes one targeted provider after a fan-out
type SlotOutcome struct {
	Provider string     `json:"provider"`
	Status   SlotStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
}

// QuoteService fans quote requests out to carriers
type QuoteService struct {
	caller *carriers.Caller
	logger *zap.Logger
}

// NewQuoteService creates a new QuoteService instance
func NewQuoteService(caller *carriers.Caller, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		caller: caller,
		logger: logger,
	}
}

// RequestQuotes sends the request to every target concurrently and returns the
// quotes of the providers that succeeded. An empty providerNames targets every
// registered provider. Failures are logged and omitted; this never errors.
func (s *QuoteService) RequestQuotes(ctx context.Context, req models.QuoteRequest, providerNames []string) models.AggregatedQuoteSet {
	quotes, _ := s.RequestQuotesWithOutcomes(ctx, req, providerNames)
	return quotes
}

// RequestQuotesWithOutcomes is RequestQuotes plus a per-slot outcome for every
// target, in target order, so callers can tell an unconfigured provider from a
// failed one.
func (s *QuoteService) RequestQuotesWithOutcomes(ctx context.Context, req models.QuoteRequest, providerNames []string) (models.AggregatedQuoteSet, []SlotOutcome) {
	targets := s.targets(providerNames)
	quotes := make(models.AggregatedQuoteSet, len(targets))
	outcomes := make([]SlotOutcome, len(targets))

	startTime := time.Now()
	s.logger.Info("Starting quote fan-out",
		zap.String("submission_id", req.SubmissionID),
		zap.Strings("providers", targets),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range targets {
		i, name := i, name
		g.Go(func() error {
			result, err := s.quoteFrom(gctx, name, req)
			if err != nil {
				outcomes[i] = SlotOutcome{Provider: name, Status: slotStatus(err), Error: err.Error()}
				observability.FanOutSlotsTotal.WithLabelValues(name, "failed").Inc()
				s.logger.Warn("Provider omitted from quote set",
					zap.String("submission_id", req.SubmissionID),
					zap.String("provider", name),
					zap.String("code", carriers.ErrorCode(err)),
					zap.Error(err),
				)
				return nil
			}

			outcomes[i] = SlotOutcome{Provider: name, Status: SlotSucceeded}
			observability.FanOutSlotsTotal.WithLabelValues(name, "success").Inc()

			mu.Lock()
			quotes[name] = result
			mu.Unlock()
			return nil
		})
	}
	// slot errors are swallowed above, so Wait only synchronizes
	_ = g.Wait()

	s.logger.Info("Quote fan-out completed",
		zap.String("submission_id", req.SubmissionID),
		zap.Int("targeted", len(targets)),
		zap.Int("quoted", len(quotes)),
		zap.Duration("latency", time.Since(startTime)),
	)

	return quotes, outcomes
}

// RequestQuoteFromCarrier requests a quote from exactly one carrier and surfaces every error
func (s *QuoteService) RequestQuoteFromCarrier(ctx context.Context, providerName string, req models.QuoteRequest) (*models.QuoteResult, error) {
	return s.quoteFrom(ctx, providerName, req)
}

func (s *QuoteService) quoteFrom(ctx context.Context, name string, req models.QuoteRequest) (*models.QuoteResult, error) {
	cfg, err := s.caller.Registry().Configured(name)
	if err != nil {
		return nil, err
	}

	body := carriers.TransformFor(cfg.Key())(cfg, req)

	respBody, err := s.caller.Call(ctx, cfg.Key(), http.MethodPost, quotePath, body)
	if err != nil {
		return nil, err
	}

	return decodeQuote(cfg.Key(), respBody)
}

// targets normalizes and de-duplicates the requested names, keeping first-seen order
func (s *QuoteService) targets(providerNames []string) []string {
	if len(providerNames) == 0 {
		return s.caller.Registry().List()
	}

	seen := make(map[string]struct{}, len(providerNames))
	targets := make([]string, 0, len(providerNames))
	for _, name := range providerNames {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, key)
	}
	return targets
}

func slotStatus(err error) SlotStatus {
	switch {
	case errors.Is(err, carriers.ErrUnknownProvider):
		return SlotUnknown
	case errors.Is(err, carriers.ErrUnconfiguredProvider):
		return SlotUnconfigured
	default:
		return SlotFailed
	}
}

// carrierQuote is the tolerant superset of the carriers' quote response shapes
type carrierQuote struct {
	QuoteID           string                `json:"quote_id"`
	ID                string                `json:"id"`
	Premium           *float64              `json:"premium"`
	TotalPremium      *float64              `json:"total_premium"`
	Coverages         []models.CoverageLine `json:"coverages"`
	ValidUntil        *time.Time            `json:"valid_until"`
	ExpiresAt         *time.Time            `json:"expires_at"`
	Status            string                `json:"status"`
	RequiredDocuments []string              `json:"required_documents"`
}

func decodeQuote(provider string, body []byte) (*models.QuoteResult, error) {
	var raw carrierQuote
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, carriers.NewProviderError(provider, carriers.CodeProviderRequest, "malformed quote response", 0, err)
	}

	result := &models.QuoteResult{
		Provider:          provider,
		QuoteID:           firstNonEmpty(raw.QuoteID, raw.ID),
		Coverages:         raw.Coverages,
		ValidUntil:        raw.ValidUntil,
		Status:            models.ParseQuoteStatus(raw.Status),
		RequiredDocuments: raw.RequiredDocuments,
	}

	switch {
	case raw.Premium != nil:
		result.Premium = *raw.Premium
	case raw.TotalPremium != nil:
		result.Premium = *raw.TotalPremium
	default:
		for _, line := range raw.Coverages {
			result.Premium += line.Premium
		}
	}

	if result.ValidUntil == nil {
		result.ValidUntil = raw.ExpiresAt
	}
	if result.Coverages == nil {
		result.Coverages = []models.CoverageLine{}
	}
	if result.RequiredDocuments == nil {
		result.RequiredDocuments = []string{}
	}
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
