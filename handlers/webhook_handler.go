package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/quote-gateway/middleware"
	"github.com/upb/quote-gateway/services/webhooks"
	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// maxWebhookBody bounds inbound carrier payloads
const maxWebhookBody = 1 << 20

// WebhookReconciler defines the webhook operations the handler needs
type WebhookReconciler interface {
	SignatureHeader(provider string) string
	HandleWebhook(ctx context.Context, provider string, rawPayload []byte, signature string) (bool, string)
}

// WebhookResponse is returned to the carrier for every callback
type WebhookResponse struct {
	Processed bool   `json:"processed"`
	Message   string `json:"message"`
}

// WebhookHandler receives carrier callbacks
type WebhookHandler struct {
	reconciler WebhookReconciler
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconciler WebhookReconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleWebhook handles POST /webhooks/{carrier}.
// Carriers always get 200 so they stop redelivering; the outcome is in the body.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrier := chi.URLParam(r, "carrier")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("provider", carrier),
			zap.Error(err))
		h.respond(w, WebhookResponse{Processed: false, Message: webhooks.MessageMalformedPayload})
		return
	}

	var signature string
	if header := h.reconciler.SignatureHeader(carrier); header != "" {
		signature = r.Header.Get(header)
	}

	processed, message := h.reconciler.HandleWebhook(ctx, carrier, payload, signature)
	h.respond(w, WebhookResponse{Processed: processed, Message: message})
}

func (h *WebhookHandler) respond(w http.ResponseWriter, resp WebhookResponse) {
	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to write webhook response", zap.Error(err))
	}
}
