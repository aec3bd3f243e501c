package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/quote-gateway/middleware"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/quotes"
	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// QuoteService defines the quote operations the handler needs
type QuoteService interface {
	// RequestQuotesWithOutcomes fans the request out and reports every slot
	RequestQuotesWithOutcomes(ctx context.Context, req models.QuoteRequest, providers []string) (models.AggregatedQuoteSet, []quotes.SlotOutcome)

	// RequestQuoteFromCarrier quotes a single carrier and surfaces its error
	RequestQuoteFromCarrier(ctx context.Context, provider string, req models.QuoteRequest) (*models.QuoteResult, error)
}

// RequestQuotesBody is the body of POST /quotes/request
type RequestQuotesBody struct {
	Request   models.QuoteRequest `json:"request"`
	Providers []string            `json:"providers,omitempty"`
}

// QuotesResponse carries the aggregated quote set
type QuotesResponse struct {
	Quotes   models.AggregatedQuoteSet `json:"quotes"`
	Outcomes []quotes.SlotOutcome      `json:"outcomes,omitempty"`
}

// QuoteHandler handles quote-related HTTP requests
type QuoteHandler struct {
	quotes QuoteService
	logger *zap.Logger
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		logger: logger,
	}
}

// HandleRequestQuotes handles POST /quotes/request.
// Carrier failures never fail the request; ?detail=true adds per-carrier outcomes.
func (h *QuoteHandler) HandleRequestQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body RequestQuotesBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := body.Request.Validate(); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	quoteSet, outcomes := h.quotes.RequestQuotesWithOutcomes(ctx, body.Request, body.Providers)

	h.logger.Info("quote fan-out finished",
		zap.String("request_id", requestID),
		zap.String("submission_id", body.Request.SubmissionID),
		zap.Int("targets", len(outcomes)),
		zap.Int("quotes", len(quoteSet)))

	response := QuotesResponse{Quotes: quoteSet}
	if detail, _ := strconv.ParseBool(r.URL.Query().Get("detail")); detail {
		response.Outcomes = outcomes
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write quotes response", zap.Error(err))
	}
}

// HandleCarrierQuote handles POST /quotes/{carrier}
func (h *QuoteHandler) HandleCarrierQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrier := chi.URLParam(r, "carrier")

	var req models.QuoteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	quote, err := h.quotes.RequestQuoteFromCarrier(ctx, carrier, req)
	if err != nil {
		h.logger.Warn("carrier quote failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("provider", carrier),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, quote); err != nil {
		h.logger.Error("failed to write quote response", zap.Error(err))
	}
}
