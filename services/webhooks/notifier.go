package webhooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/models"
)

// Notifier receives the state changes produced by reconciled webhooks
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, n *models.Notification) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, n *models.Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification
func (l *LogNotifier) Notify(_ context.Context, n *models.Notification) error {
	fields := []zap.Field{
		zap.String("notification_id", n.ID.String()),
		zap.String("kind", string(n.Kind)),
		zap.String("provider", n.Provider),
	}
	if n.QuoteID != nil {
		fields = append(fields, zap.String("quote_id", *n.QuoteID))
	}
	if n.PolicyID != nil {
		fields = append(fields, zap.String("policy_id", *n.PolicyID))
	}
	if n.PaymentID != nil {
		fields = append(fields, zap.String("payment_id", *n.PaymentID))
	}
	if n.Amount != nil {
		fields = append(fields, zap.Float64("amount", *n.Amount))
	}

	l.logger.Info("carrier notification", fields...)
	return nil
}

// MultiNotifier hands each notification to every notifier in order and
// returns the first error
type MultiNotifier []Notifier

// Notify implements Notifier
func (m MultiNotifier) Notify(ctx context.Context, n *models.Notification) error {
	var firstErr error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
