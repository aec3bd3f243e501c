package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEventType is a normalized carrier event type
type WebhookEventType string

const (
	EventQuoteReady      WebhookEventType = "quote-ready"
	EventPolicyIssued    WebhookEventType = "policy-issued"
	EventPolicyCancelled WebhookEventType = "policy-cancelled"
	EventPaymentReceived WebhookEventType = "payment-received"
)

// WebhookEvent is an inbound carrier callback. It is consumed once and never stored.
type WebhookEvent struct {
	Provider  string           `json:"provider"`
	Type      WebhookEventType `json:"event_type"`
	EventID   string           `json:"event_id,omitempty"`
	QuoteID   string           `json:"quote_id,omitempty"`
	PolicyID  string           `json:"policy_id,omitempty"`
	PaymentID string           `json:"payment_id,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
	Payload   json.RawMessage  `json:"payload"`
}

// PayloadID returns the most specific identifier carried by the event, for log correlation
func (e *WebhookEvent) PayloadID() string {
	for _, id := range []string{e.EventID, e.PaymentID, e.PolicyID, e.QuoteID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// NotificationKind is the internal state change a webhook maps onto
type NotificationKind string

const (
	NotificationQuoteAvailable  NotificationKind = "quote_available"
	NotificationPolicyActive    NotificationKind = "policy_active"
	NotificationPolicyCancelled NotificationKind = "policy_cancelled"
	NotificationPaymentRecorded NotificationKind = "payment_recorded"
)

// Notification is a state-change event handed to the notification collaborator
type Notification struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	Kind       NotificationKind `json:"kind" db:"kind"`
	Provider   string           `json:"provider" db:"provider"`
	QuoteID    *string          `json:"quote_id,omitempty" db:"quote_id"`
	PolicyID   *string          `json:"policy_id,omitempty" db:"policy_id"`
	PaymentID  *string          `json:"payment_id,omitempty" db:"payment_id"`
	Amount     *float64         `json:"amount,omitempty" db:"amount"`
	Payload    json.RawMessage  `json:"payload,omitempty" db:"payload"`
	OccurredAt time.Time        `json:"occurred_at" db:"occurred_at"`
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "carrier_notifications"
}

// NewNotification creates a new Notification instance
func NewNotification(kind NotificationKind, provider string) *Notification {
	return &Notification{
		ID:         uuid.New(),
		Kind:       kind,
		Provider:   provider,
		OccurredAt: time.Now().UTC(),
	}
}

// WithQuote sets the carrier quote ID
func (n *Notification) WithQuote(quoteID string) *Notification {
	if quoteID != "" {
		n.QuoteID = &quoteID
	}
	return n
}

// WithPolicy sets the carrier policy ID
func (n *Notification) WithPolicy(policyID string) *Notification {
	if policyID != "" {
		n.PolicyID = &policyID
	}
	return n
}

// WithPayment sets payment details
func (n *Notification) WithPayment(paymentID string, amount float64) *Notification {
	if paymentID != "" {
		n.PaymentID = &paymentID
	}
	if amount != 0 {
		n.Amount = &amount
	}
	return n
}

// WithPayload attaches the raw carrier payload
func (n *Notification) WithPayload(payload json.RawMessage) *Notification {
	n.Payload = payload
	return n
}
