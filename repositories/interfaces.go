package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/quote-gateway/models"
)

// NotificationRepository is the outbox for carrier notifications. Rows are
// written by the webhook reconciler and drained by downstream consumers.
type NotificationRepository interface {
	// Insert stores a new notification
	Insert(ctx context.Context, n *models.Notification) error

	// GetByID retrieves a notification by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)

	// ListUndelivered returns the oldest notifications not yet delivered
	ListUndelivered(ctx context.Context, limit int) ([]*models.Notification, error)

	// MarkDelivered flags a notification as consumed
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Notifications NotificationRepository
}
