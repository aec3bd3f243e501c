package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/quote-gateway/middleware"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/utils"
	"go.uber.org/zap"
)

// PolicyService defines the policy lifecycle operations the handler needs
type PolicyService interface {
	PurchasePolicy(ctx context.Context, provider string, req models.PolicyRequest) (*models.PolicyResult, error)
	GetPolicyStatus(ctx context.Context, provider, policyNumber string) (*models.PolicyResult, error)
	CancelPolicy(ctx context.Context, provider, policyNumber, reason string, effectiveDate *time.Time) (*models.CancellationResult, error)
	GetPolicyDocuments(ctx context.Context, provider, policyNumber string) ([]models.DocumentRef, error)
}

// PurchasePolicyRequest represents a request to bind a policy from a quote
type PurchasePolicyRequest struct {
	Provider string               `json:"provider" validate:"required"`
	Policy   models.PolicyRequest `json:"policy"`
}

// CancelPolicyRequest represents a request to cancel a policy
type CancelPolicyRequest struct {
	Reason        string     `json:"reason" validate:"required"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

// DocumentsResponse lists a policy's documents
type DocumentsResponse struct {
	PolicyNumber string               `json:"policy_number"`
	Documents    []models.DocumentRef `json:"documents"`
}

// PolicyHandler handles policy lifecycle HTTP requests
type PolicyHandler struct {
	policies PolicyService
	logger   *zap.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(policies PolicyService, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{
		policies: policies,
		logger:   logger,
	}
}

// HandlePurchasePolicy handles POST /policies/purchase
func (h *PolicyHandler) HandlePurchasePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req PurchasePolicyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	h.logger.Debug("purchasing policy",
		zap.String("request_id", requestID),
		zap.String("provider", req.Provider),
		zap.String("quote_id", req.Policy.QuoteID))

	policy, err := h.policies.PurchasePolicy(ctx, req.Provider, req.Policy)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteCreated(w, policy); err != nil {
		h.logger.Error("failed to write policy response", zap.Error(err))
	}
}

// HandleGetPolicy handles GET /policies/{carrier}/{policyNumber}
func (h *PolicyHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	carrier, policyNumber, ok := h.policyParams(w, r)
	if !ok {
		return
	}

	policy, err := h.policies.GetPolicyStatus(r.Context(), carrier, policyNumber)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, policy); err != nil {
		h.logger.Error("failed to write policy response", zap.Error(err))
	}
}

// HandleCancelPolicy handles POST /policies/{carrier}/{policyNumber}/cancel
func (h *PolicyHandler) HandleCancelPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	carrier, policyNumber, ok := h.policyParams(w, r)
	if !ok {
		return
	}

	var req CancelPolicyRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.policies.CancelPolicy(ctx, carrier, policyNumber, req.Reason, req.EffectiveDate)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("policy cancellation accepted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("provider", result.Provider),
		zap.String("policy_number", result.PolicyNumber))

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write cancellation response", zap.Error(err))
	}
}

// HandleGetDocuments handles GET /policies/{carrier}/{policyNumber}/documents
func (h *PolicyHandler) HandleGetDocuments(w http.ResponseWriter, r *http.Request) {
	carrier, policyNumber, ok := h.policyParams(w, r)
	if !ok {
		return
	}

	docs, err := h.policies.GetPolicyDocuments(r.Context(), carrier, policyNumber)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, DocumentsResponse{PolicyNumber: policyNumber, Documents: docs}); err != nil {
		h.logger.Error("failed to write documents response", zap.Error(err))
	}
}

func (h *PolicyHandler) policyParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	carrier := chi.URLParam(r, "carrier")
	policyNumber := chi.URLParam(r, "policyNumber")
	if err := utils.ValidateRequired(policyNumber, "policy_number"); err != nil {
		HandleValidationError(w, err, h.logger)
		return "", "", false
	}
	return carrier, policyNumber, true
}
