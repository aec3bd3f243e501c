package policies

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/utils"
)

const policiesPath = "/policies"

// PolicyService runs policy lifecycle calls against a single named carrier.
// Every error is returned to the caller.
type PolicyService struct {
	caller *carriers.Caller
	logger *zap.Logger
	now    func() time.Time
}

// NewPolicyService creates a new PolicyService instance
func NewPolicyService(caller *carriers.Caller, logger *zap.Logger) *PolicyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyService{
		caller: caller,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for default cancellation dates
func (s *PolicyService) WithClock(now func() time.Time) *PolicyService {
	s.now = now
	return s
}

// PurchasePolicy binds coverage from an accepted quote
func (s *PolicyService) PurchasePolicy(ctx context.Context, provider string, req models.PolicyRequest) (*models.PolicyResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	body := map[string]any{
		"quote_id":        req.QuoteID,
		"effective_date":  req.EffectiveDate.Format(time.RFC3339),
		"payment_cadence": req.PaymentCadence,
		"billing_address": req.BillingAddress,
	}

	respBody, err := s.caller.Call(ctx, provider, http.MethodPost, policiesPath, body)
	if err != nil {
		s.logFailure("purchase", provider, req.QuoteID, err)
		return nil, err
	}

	result, err := decodePolicy(provider, respBody)
	if err != nil {
		return nil, err
	}
	if result.EffectiveDate == nil {
		effective := req.EffectiveDate
		result.EffectiveDate = &effective
	}
	if len(result.PaymentSchedule) == 0 && result.premium > 0 {
		result.PaymentSchedule = models.BuildPaymentSchedule(result.premium, req.PaymentCadence, *result.EffectiveDate)
	}

	s.logger.Info("Policy purchased",
		zap.String("provider", result.Provider),
		zap.String("quote_id", req.QuoteID),
		zap.String("policy_number", result.PolicyNumber),
	)
	return &result.PolicyResult, nil
}

// GetPolicyStatus fetches the carrier's current view of a policy
func (s *PolicyService) GetPolicyStatus(ctx context.Context, provider, policyNumber string) (*models.PolicyResult, error) {
	respBody, err := s.caller.Call(ctx, provider, http.MethodGet, policyPath(policyNumber), nil)
	if err != nil {
		s.logFailure("status", provider, policyNumber, err)
		return nil, err
	}

	result, err := decodePolicy(provider, respBody)
	if err != nil {
		return nil, err
	}
	if result.PolicyNumber == "" {
		result.PolicyNumber = policyNumber
	}
	return &result.PolicyResult, nil
}

// CancelPolicy cancels a policy. A nil effectiveDate means now.
func (s *PolicyService) CancelPolicy(ctx context.Context, provider, policyNumber, reason string, effectiveDate *time.Time) (*models.CancellationResult, error) {
	effective := s.now().UTC()
	if effectiveDate != nil {
		effective = effectiveDate.UTC()
	}

	req := models.CancellationRequest{
		Reason:        reason,
		EffectiveDate: effective,
	}

	respBody, err := s.caller.Call(ctx, provider, http.MethodPost, policyPath(policyNumber)+"/cancel", req)
	if err != nil {
		s.logFailure("cancel", provider, policyNumber, err)
		return nil, err
	}

	var raw struct {
		PolicyNumber  string     `json:"policy_number"`
		Status        string     `json:"status"`
		EffectiveDate *time.Time `json:"effective_date"`
		RefundAmount  float64    `json:"refund_amount"`
	}
	if len(strings.TrimSpace(string(respBody))) > 0 {
		if err := json.Unmarshal(respBody, &raw); err != nil {
			return nil, carriers.NewProviderError(provider, carriers.CodeProviderRequest, "malformed cancellation response", 0, err)
		}
	}

	result := &models.CancellationResult{
		Provider:      normalize(provider),
		PolicyNumber:  firstNonEmpty(raw.PolicyNumber, policyNumber),
		Status:        models.PolicyStatusCancelled,
		Reason:        reason,
		EffectiveDate: effective,
		RefundAmount:  raw.RefundAmount,
	}
	if raw.Status != "" {
		result.Status = models.ParsePolicyStatus(raw.Status)
	}
	if raw.EffectiveDate != nil {
		result.EffectiveDate = *raw.EffectiveDate
	}

	s.logger.Info("Policy cancelled",
		zap.String("provider", result.Provider),
		zap.String("policy_number", result.PolicyNumber),
		zap.Time("effective_date", result.EffectiveDate),
	)
	return result, nil
}

// GetPolicyDocuments lists the carrier-hosted documents of a policy
func (s *PolicyService) GetPolicyDocuments(ctx context.Context, provider, policyNumber string) ([]models.DocumentRef, error) {
	respBody, err := s.caller.Call(ctx, provider, http.MethodGet, policyPath(policyNumber)+"/documents", nil)
	if err != nil {
		s.logFailure("documents", provider, policyNumber, err)
		return nil, err
	}

	// carriers answer either with a bare array or with {"documents": [...]}
	var docs []models.DocumentRef
	if err := json.Unmarshal(respBody, &docs); err != nil {
		var wrapped struct {
			Documents []models.DocumentRef `json:"documents"`
		}
		if err := json.Unmarshal(respBody, &wrapped); err != nil {
			return nil, carriers.NewProviderError(provider, carriers.CodeProviderRequest, "malformed documents response", 0, err)
		}
		docs = wrapped.Documents
	}
	if docs == nil {
		docs = []models.DocumentRef{}
	}
	return docs, nil
}

func (s *PolicyService) logFailure(op, provider, ref string, err error) {
	s.logger.Error("Policy lifecycle call failed",
		zap.String("operation", op),
		zap.String("provider", provider),
		zap.String("reference", ref),
		zap.String("code", carriers.ErrorCode(err)),
		zap.Error(err),
	)
}

// carrierPolicy is the tolerant superset of the carriers' policy response shapes
type carrierPolicy struct {
	PolicyNumber    string               `json:"policy_number"`
	PolicyID        string               `json:"policy_id"`
	Status          string               `json:"status"`
	EffectiveDate   *time.Time           `json:"effective_date"`
	ExpirationDate  *time.Time           `json:"expiration_date"`
	Premium         float64              `json:"premium"`
	PaymentSchedule []models.Installment `json:"payment_schedule"`
	Documents       []models.DocumentRef `json:"documents"`
}

type decodedPolicy struct {
	models.PolicyResult
	premium float64
}

func decodePolicy(provider string, body []byte) (*decodedPolicy, error) {
	var raw carrierPolicy
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, carriers.NewProviderError(provider, carriers.CodeProviderRequest, "malformed policy response", 0, err)
	}

	result := &decodedPolicy{
		PolicyResult: models.PolicyResult{
			Provider:        normalize(provider),
			PolicyNumber:    firstNonEmpty(raw.PolicyNumber, raw.PolicyID),
			Status:          models.ParsePolicyStatus(raw.Status),
			EffectiveDate:   raw.EffectiveDate,
			ExpirationDate:  raw.ExpirationDate,
			PaymentSchedule: raw.PaymentSchedule,
			Documents:       raw.Documents,
		},
		premium: raw.Premium,
	}
	if result.PaymentSchedule == nil {
		result.PaymentSchedule = []models.Installment{}
	}
	if result.Documents == nil {
		result.Documents = []models.DocumentRef{}
	}
	return result, nil
}

func policyPath(policyNumber string) string {
	return policiesPath + "/" + url.PathEscape(policyNumber)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
