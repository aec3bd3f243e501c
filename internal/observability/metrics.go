package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CarrierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_gateway_carrier_requests_total",
			Help: "Total number of outbound carrier requests per provider and status class",
		},
		[]string{"provider", "status"},
	)

	CarrierRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_gateway_carrier_request_duration_seconds",
			Help:    "Outbound carrier request duration in seconds per provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CarrierRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_gateway_carrier_rate_limited_total",
			Help: "Total number of 429 responses received per provider",
		},
		[]string{"provider"},
	)

	FanOutSlotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_gateway_fanout_slots_total",
			Help: "Fan-out slots per provider by outcome (success or failed)",
		},
		[]string{"provider", "outcome"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_gateway_webhook_events_total",
			Help: "Inbound carrier webhook events per provider, event type and outcome",
		},
		[]string{"provider", "event_type", "outcome"},
	)
)

// ObserveCarrierRequest records one outbound carrier call. A status of 0 means a transport error.
func ObserveCarrierRequest(provider string, status int, startedAt time.Time) {
	CarrierRequestDurationSeconds.WithLabelValues(provider).Observe(time.Since(startedAt).Seconds())
	CarrierRequestsTotal.WithLabelValues(provider, statusClass(status)).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
