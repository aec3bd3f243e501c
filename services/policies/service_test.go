package policies

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/services/ratelimit"
	"github.com/upb/quote-gateway/utils"
)

func newService(t *testing.T, handler http.HandlerFunc, cfg carriers.ProviderConfig) *PolicyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if cfg.Name == "" {
		cfg.Name = "hiscox"
	}
	cfg.BaseURL = server.URL
	registry, err := carriers.NewRegistryFrom([]carriers.ProviderConfig{cfg})
	require.NoError(t, err)

	caller := carriers.NewCaller(registry, ratelimit.NewGovernor(registry, nil), nil, zap.NewNop()).
		WithSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return NewPolicyService(caller, zap.NewNop())
}

func validPolicyRequest() models.PolicyRequest {
	return models.PolicyRequest{
		QuoteID:        "Q-1",
		EffectiveDate:  time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		PaymentCadence: models.PaymentQuarterly,
		BillingAddress: models.Address{Line1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701"},
	}
}

func TestPurchasePolicy(t *testing.T) {
	var got map[string]any
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/policies", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"policy_number":"P-100","status":"issued","premium":1200,"documents":[{"id":"d1","type":"declarations","url":"https://docs.test/d1"}]}`))
	}, carriers.ProviderConfig{APIKey: "k"})

	result, err := svc.PurchasePolicy(context.Background(), "hiscox", validPolicyRequest())
	require.NoError(t, err)

	assert.Equal(t, "Q-1", got["quote_id"])
	assert.Equal(t, "quarterly", got["payment_cadence"])
	assert.Equal(t, "P-100", result.PolicyNumber)
	assert.Equal(t, models.PolicyStatusActive, result.Status)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "declarations", result.Documents[0].Type)

	// carrier sent no schedule, so it is derived from the premium and cadence
	require.Len(t, result.PaymentSchedule, 4)
	assert.Equal(t, 300.0, result.PaymentSchedule[0].Amount)
	assert.Equal(t, time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC), result.PaymentSchedule[1].DueDate)
}

func TestPurchasePolicy_MonthEndScheduleStaysInShortMonths(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"policy_number":"P-200","status":"issued","premium":1200}`))
	}, carriers.ProviderConfig{APIKey: "k"})

	req := validPolicyRequest()
	req.EffectiveDate = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	req.PaymentCadence = models.PaymentMonthly

	result, err := svc.PurchasePolicy(context.Background(), "hiscox", req)
	require.NoError(t, err)

	require.Len(t, result.PaymentSchedule, 12)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), result.PaymentSchedule[1].DueDate)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), result.PaymentSchedule[3].DueDate)
}

func TestPurchasePolicy_InvalidRequest(t *testing.T) {
	var calls int32
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, carriers.ProviderConfig{APIKey: "k"})

	req := validPolicyRequest()
	req.PaymentCadence = "weekly"

	_, err := svc.PurchasePolicy(context.Background(), "hiscox", req)
	assert.True(t, utils.IsValidationError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPurchasePolicy_SurfacesErrors(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}, carriers.ProviderConfig{APIKey: "k"})

	_, err := svc.PurchasePolicy(context.Background(), "hiscox", validPolicyRequest())
	assert.ErrorIs(t, err, carriers.ErrProviderRequest)

	_, err = svc.PurchasePolicy(context.Background(), "unknown", validPolicyRequest())
	assert.ErrorIs(t, err, carriers.ErrUnknownProvider)
}

func TestPurchasePolicy_Unconfigured(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {}, carriers.ProviderConfig{})

	_, err := svc.PurchasePolicy(context.Background(), "hiscox", validPolicyRequest())
	assert.ErrorIs(t, err, carriers.ErrUnconfiguredProvider)
}

func TestGetPolicyStatus(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/policies/P 7", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"Cancelled","expiration_date":"2027-11-01T00:00:00Z"}`))
	}, carriers.ProviderConfig{APIKey: "k"})

	result, err := svc.GetPolicyStatus(context.Background(), "HISCOX", "P 7")
	require.NoError(t, err)

	assert.Equal(t, "hiscox", result.Provider)
	assert.Equal(t, "P 7", result.PolicyNumber)
	assert.Equal(t, models.PolicyStatusCancelled, result.Status)
	require.NotNil(t, result.ExpirationDate)
	assert.Equal(t, 2027, result.ExpirationDate.Year())
}

func TestGetPolicyStatus_RateLimitExhausted(t *testing.T) {
	var calls int32
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, carriers.ProviderConfig{APIKey: "k", MaxRetries: 1})

	_, err := svc.GetPolicyStatus(context.Background(), "hiscox", "P-1")
	assert.ErrorIs(t, err, carriers.ErrProviderRateLimited)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCancelPolicy_DefaultsEffectiveDateToNow(t *testing.T) {
	var sent models.CancellationRequest
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/policies/P-1/cancel", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_, _ = w.Write([]byte(`{"refund_amount":42.5}`))
	}, carriers.ProviderConfig{APIKey: "k"})

	before := time.Now()
	result, err := svc.CancelPolicy(context.Background(), "hiscox", "P-1", "closed business", nil)
	require.NoError(t, err)

	assert.False(t, result.EffectiveDate.IsZero())
	assert.WithinDuration(t, before, result.EffectiveDate, 2*time.Second)
	assert.WithinDuration(t, before, sent.EffectiveDate, 2*time.Second)
	assert.Equal(t, "closed business", sent.Reason)
	assert.Equal(t, models.PolicyStatusCancelled, result.Status)
	assert.Equal(t, 42.5, result.RefundAmount)
	assert.Equal(t, "P-1", result.PolicyNumber)
}

func TestCancelPolicy_UsesInjectedClockAndExplicitDate(t *testing.T) {
	fixed := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	var sent models.CancellationRequest
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		w.WriteHeader(http.StatusNoContent)
	}, carriers.ProviderConfig{APIKey: "k"})
	svc.WithClock(func() time.Time { return fixed })

	result, err := svc.CancelPolicy(context.Background(), "hiscox", "P-1", "nonpayment", nil)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(result.EffectiveDate))
	assert.True(t, fixed.Equal(sent.EffectiveDate))

	explicit := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	result, err = svc.CancelPolicy(context.Background(), "hiscox", "P-1", "nonpayment", &explicit)
	require.NoError(t, err)
	assert.True(t, explicit.Equal(result.EffectiveDate))
}

func TestGetPolicyDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"1","type":"policy","url":"u1"},{"id":"2","type":"coi","url":"u2"}]`, 2},
		{"wrapped", `{"documents":[{"id":"1","type":"policy","url":"u1"}]}`, 1},
		{"empty", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/policies/P-1/documents", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			}, carriers.ProviderConfig{APIKey: "k"})

			docs, err := svc.GetPolicyDocuments(context.Background(), "hiscox", "P-1")
			require.NoError(t, err)
			assert.NotNil(t, docs)
			assert.Len(t, docs, tt.want)
		})
	}
}

func TestGetPolicyDocuments_Malformed(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"nope"`))
	}, carriers.ProviderConfig{APIKey: "k"})

	_, err := svc.GetPolicyDocuments(context.Background(), "hiscox", "P-1")
	assert.ErrorIs(t, err, carriers.ErrProviderRequest)
}
