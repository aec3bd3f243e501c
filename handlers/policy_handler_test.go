package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
	"go.uber.org/zap"
)

// MockPolicyService is a mock implementation of PolicyService
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) PurchasePolicy(ctx context.Context, provider string, req models.PolicyRequest) (*models.PolicyResult, error) {
	args := m.Called(ctx, provider, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PolicyResult), args.Error(1)
}

func (m *MockPolicyService) GetPolicyStatus(ctx context.Context, provider, policyNumber string) (*models.PolicyResult, error) {
	args := m.Called(ctx, provider, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PolicyResult), args.Error(1)
}

func (m *MockPolicyService) CancelPolicy(ctx context.Context, provider, policyNumber, reason string, effectiveDate *time.Time) (*models.CancellationResult, error) {
	args := m.Called(ctx, provider, policyNumber, reason, effectiveDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CancellationResult), args.Error(1)
}

func (m *MockPolicyService) GetPolicyDocuments(ctx context.Context, provider, policyNumber string) ([]models.DocumentRef, error) {
	args := m.Called(ctx, provider, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DocumentRef), args.Error(1)
}

func policyRouter(h *PolicyHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/policies/purchase", h.HandlePurchasePolicy)
	r.Get("/policies/{carrier}/{policyNumber}", h.HandleGetPolicy)
	r.Post("/policies/{carrier}/{policyNumber}/cancel", h.HandleCancelPolicy)
	r.Get("/policies/{carrier}/{policyNumber}/documents", h.HandleGetDocuments)
	return r
}

func validPolicyRequest() models.PolicyRequest {
	return models.PolicyRequest{
		QuoteID:        "Q-1",
		EffectiveDate:  time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		PaymentCadence: models.PaymentQuarterly,
		BillingAddress: models.Address{Line1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701"},
	}
}

func TestHandlePurchasePolicy(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockPolicyService)
		svc.On("PurchasePolicy", mock.Anything, "coterie", mock.AnythingOfType("models.PolicyRequest")).
			Return(&models.PolicyResult{Provider: "coterie", PolicyNumber: "P-77", Status: models.PolicyStatusActive}, nil)

		body := PurchasePolicyRequest{Provider: "coterie", Policy: validPolicyRequest()}
		req := httptest.NewRequest(http.MethodPost, "/policies/purchase", jsonBody(t, body))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, "P-77", data["policy_number"])
		assert.Equal(t, "active", data["status"])
		svc.AssertExpectations(t)
	})

	t.Run("missing provider and quote", func(t *testing.T) {
		svc := new(MockPolicyService)
		policy := validPolicyRequest()
		policy.QuoteID = ""

		req := httptest.NewRequest(http.MethodPost, "/policies/purchase", jsonBody(t, PurchasePolicyRequest{Policy: policy}))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "provider is required")
		assert.Contains(t, w.Body.String(), "policy.quote_id is required")
		svc.AssertNotCalled(t, "PurchasePolicy", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("carrier failure maps to bad gateway", func(t *testing.T) {
		svc := new(MockPolicyService)
		svc.On("PurchasePolicy", mock.Anything, "hiscox", mock.Anything).
			Return(nil, carriers.NewProviderError("hiscox", carriers.CodeProviderRequest, "provider request failed", 422, nil))

		req := httptest.NewRequest(http.MethodPost, "/policies/purchase", jsonBody(t, PurchasePolicyRequest{Provider: "hiscox", Policy: validPolicyRequest()}))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestHandleGetPolicy(t *testing.T) {
	svc := new(MockPolicyService)
	svc.On("GetPolicyStatus", mock.Anything, "next", "P-1").
		Return(&models.PolicyResult{Provider: "next", PolicyNumber: "P-1", Status: models.PolicyStatusCancelled}, nil)
	svc.On("GetPolicyStatus", mock.Anything, "acme", "P-1").
		Return(nil, carriers.NewProviderError("acme", carriers.CodeUnknownProvider, "unknown provider", 0, nil))

	router := policyRouter(NewPolicyHandler(svc, zap.NewNop()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/policies/next/P-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeData(t, w)["status"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/policies/acme/P-1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCancelPolicy(t *testing.T) {
	t.Run("without effective date", func(t *testing.T) {
		svc := new(MockPolicyService)
		svc.On("CancelPolicy", mock.Anything, "next", "P-1", "insured request", (*time.Time)(nil)).
			Return(&models.CancellationResult{Provider: "next", PolicyNumber: "P-1", Status: models.PolicyStatusCancelled, Reason: "insured request"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/policies/next/P-1/cancel", bytes.NewReader([]byte(`{"reason":"insured request"}`)))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cancelled", decodeData(t, w)["status"])
		svc.AssertExpectations(t)
	})

	t.Run("with effective date", func(t *testing.T) {
		svc := new(MockPolicyService)
		want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
		svc.On("CancelPolicy", mock.Anything, "next", "P-1", "sold business", mock.MatchedBy(func(d *time.Time) bool {
			return d != nil && d.Equal(want)
		})).Return(&models.CancellationResult{Provider: "next", PolicyNumber: "P-1", EffectiveDate: want}, nil)

		req := httptest.NewRequest(http.MethodPost, "/policies/next/P-1/cancel",
			bytes.NewReader([]byte(`{"reason":"sold business","effective_date":"2026-12-31T00:00:00Z"}`)))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("reason required", func(t *testing.T) {
		svc := new(MockPolicyService)

		req := httptest.NewRequest(http.MethodPost, "/policies/next/P-1/cancel", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()

		policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "reason is required")
	})
}

func TestHandleGetDocuments(t *testing.T) {
	svc := new(MockPolicyService)
	svc.On("GetPolicyDocuments", mock.Anything, "coterie", "P-5").
		Return([]models.DocumentRef{{ID: "D-1", Type: "declarations", URL: "https://docs.test/D-1"}}, nil)

	w := httptest.NewRecorder()
	policyRouter(NewPolicyHandler(svc, zap.NewNop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/policies/coterie/P-5/documents", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "P-5", data["policy_number"])
	assert.Len(t, data["documents"], 1)
}
