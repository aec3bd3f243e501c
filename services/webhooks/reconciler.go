package webhooks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/internal/observability"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
)

// Result messages returned to carriers
const (
	MessageProcessed         = "notification dispatched"
	MessageUnknownProvider   = "unknown provider"
	MessageInvalidSignature  = "invalid signature"
	MessageMalformedPayload  = "malformed payload"
	MessageNotifierFailed    = "notification failed"
	messageUnrecognizedEvent = "unrecognized event type"
)

// Outcome labels for webhook metrics
const (
	outcomeProcessed    = "processed"
	outcomeRejected     = "rejected"
	outcomeUnrecognized = "unrecognized"
	outcomeFailed       = "failed"
)

var notificationKinds = map[models.WebhookEventType]models.NotificationKind{
	models.EventQuoteReady:      models.NotificationQuoteAvailable,
	models.EventPolicyIssued:    models.NotificationPolicyActive,
	models.EventPolicyCancelled: models.NotificationPolicyCancelled,
	models.EventPaymentReceived: models.NotificationPaymentRecorded,
}

// Reconciler verifies inbound carrier webhooks and turns them into notifications
type Reconciler struct {
	registry *carriers.Registry
	notifier Notifier
	logger   *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(registry *carriers.Registry, notifier Notifier, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// SignatureHeader returns the header a carrier signs its webhooks in
func (r *Reconciler) SignatureHeader(provider string) string {
	cfg, err := r.registry.Resolve(provider)
	if err != nil {
		return ""
	}
	return cfg.SignatureHeader
}

// Verify checks an optional signature. An empty signature is accepted.
func (r *Reconciler) Verify(provider string, rawPayload []byte, signature string) error {
	if signature == "" {
		return nil
	}
	cfg, err := r.registry.Resolve(provider)
	if err != nil {
		return err
	}
	return VerifySignature(cfg.WebhookSecret, rawPayload, signature)
}

// HandleWebhook reconciles one inbound carrier event. It never fails the
// transport: every problem is logged and reported as processed=false.
func (r *Reconciler) HandleWebhook(ctx context.Context, provider string, rawPayload []byte, signature string) (bool, string) {
	cfg, err := r.registry.Resolve(provider)
	if err != nil {
		r.logger.Warn("Webhook from unknown provider", zap.String("provider", provider))
		observability.WebhookEventsTotal.WithLabelValues("unknown", "", outcomeRejected).Inc()
		return false, MessageUnknownProvider
	}
	name := cfg.Key()

	if err := r.Verify(name, rawPayload, signature); err != nil {
		fields := []zap.Field{
			zap.String("provider", name),
			zap.Bool("secret_configured", cfg.WebhookSecret != ""),
			zap.Int("payload_bytes", len(rawPayload)),
			zap.Error(err),
		}
		// unverified, but still useful for reconciling by hand
		if evt, perr := ParseEvent(name, rawPayload); perr == nil {
			fields = append(fields,
				zap.String("event_type", string(evt.Type)),
				zap.String("payload_id", evt.PayloadID()),
			)
		}
		r.logger.Warn("Rejected webhook with invalid signature", fields...)
		observability.WebhookEventsTotal.WithLabelValues(name, "", outcomeRejected).Inc()
		return false, MessageInvalidSignature
	}

	evt, err := ParseEvent(name, rawPayload)
	if err != nil {
		r.logger.Error("Malformed webhook payload",
			zap.String("provider", name),
			zap.Int("payload_bytes", len(rawPayload)),
			zap.Error(err),
		)
		observability.WebhookEventsTotal.WithLabelValues(name, "", outcomeFailed).Inc()
		return false, MessageMalformedPayload
	}

	eventType, known := CanonicalEventType(name, string(evt.Type))
	evt.Type = eventType
	if !known {
		r.logger.Info("Dropping unrecognized webhook event",
			zap.String("provider", name),
			zap.String("event_type", string(eventType)),
			zap.String("payload_id", evt.PayloadID()),
		)
		observability.WebhookEventsTotal.WithLabelValues(name, string(eventType), outcomeUnrecognized).Inc()
		return false, fmt.Sprintf("%s: %s", messageUnrecognizedEvent, eventType)
	}

	notification := toNotification(evt)
	if err := r.notifier.Notify(ctx, notification); err != nil {
		r.logger.Error("Failed to dispatch webhook notification",
			zap.String("provider", name),
			zap.String("event_type", string(eventType)),
			zap.String("payload_id", evt.PayloadID()),
			zap.Error(err),
		)
		observability.WebhookEventsTotal.WithLabelValues(name, string(eventType), outcomeFailed).Inc()
		return false, MessageNotifierFailed
	}

	r.logger.Info("Webhook reconciled",
		zap.String("provider", name),
		zap.String("event_type", string(eventType)),
		zap.String("payload_id", evt.PayloadID()),
		zap.String("notification_kind", string(notification.Kind)),
	)
	observability.WebhookEventsTotal.WithLabelValues(name, string(eventType), outcomeProcessed).Inc()
	return true, MessageProcessed
}

func toNotification(evt *models.WebhookEvent) *models.Notification {
	n := models.NewNotification(notificationKinds[evt.Type], evt.Provider).WithPayload(evt.Payload)

	switch evt.Type {
	case models.EventQuoteReady:
		n.WithQuote(evt.QuoteID)
	case models.EventPolicyIssued, models.EventPolicyCancelled:
		n.WithPolicy(evt.PolicyID)
	case models.EventPaymentReceived:
		n.WithPolicy(evt.PolicyID).WithPayment(evt.PaymentID, evt.Amount)
	}
	return n
}
