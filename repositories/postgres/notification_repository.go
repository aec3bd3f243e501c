package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/repositories"
	"go.uber.org/zap"
)

// ErrNotificationNotFound is returned when a notification does not exist
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository implements the repositories.NotificationRepository interface
type NotificationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB, logger *zap.Logger) repositories.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new notification
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO carrier_notifications (
			id, kind, provider, quote_id, policy_id, payment_id, amount, payload, occurred_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.Kind,
		n.Provider,
		n.QuoteID,
		n.PolicyID,
		n.PaymentID,
		n.Amount,
		nullableJSON(n.Payload),
		n.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	r.logger.Debug("notification inserted",
		zap.String("id", n.ID.String()),
		zap.String("kind", string(n.Kind)),
		zap.String("provider", n.Provider))
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	query := `
		SELECT id, kind, provider, quote_id, policy_id, payment_id, amount, payload, occurred_at
		FROM carrier_notifications
		WHERE id = $1
	`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListUndelivered returns the oldest undelivered notifications
func (r *NotificationRepository) ListUndelivered(ctx context.Context, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, kind, provider, quote_id, policy_id, payment_id, amount, payload, occurred_at
		FROM carrier_notifications
		WHERE delivered_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkDelivered flags a notification as consumed
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE carrier_notifications
		SET delivered_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND delivered_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification delivered: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var (
		quoteID, policyID, paymentID sql.NullString
		amount                       sql.NullFloat64
		payload                      []byte
	)

	if err := row.Scan(
		&n.ID,
		&n.Kind,
		&n.Provider,
		&quoteID,
		&policyID,
		&paymentID,
		&amount,
		&payload,
		&n.OccurredAt,
	); err != nil {
		return nil, err
	}

	if quoteID.Valid {
		n.QuoteID = &quoteID.String
	}
	if policyID.Valid {
		n.PolicyID = &policyID.String
	}
	if paymentID.Valid {
		n.PaymentID = &paymentID.String
	}
	if amount.Valid {
		n.Amount = &amount.Float64
	}
	if len(payload) > 0 {
		n.Payload = payload
	}
	return n, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
