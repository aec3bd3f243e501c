package models

import (
	"math"
	"strings"
	"time"
)

// PaymentCadence is how often the insured pays the premium
type PaymentCadence string

const (
	PaymentAnnual     PaymentCadence = "annual"
	PaymentSemiAnnual PaymentCadence = "semi_annual"
	PaymentQuarterly  PaymentCadence = "quarterly"
	PaymentMonthly    PaymentCadence = "monthly"
)

// Installments returns the number of payments per policy year
func (c PaymentCadence) Installments() int {
	switch c {
	case PaymentSemiAnnual:
		return 2
	case PaymentQuarterly:
		return 4
	case PaymentMonthly:
		return 12
	default:
		return 1
	}
}

// PolicyStatus represents the carrier-side state of a bound policy
type PolicyStatus string

const (
	PolicyStatusPending   PolicyStatus = "pending"
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusCancelled PolicyStatus = "cancelled"
	PolicyStatusExpired   PolicyStatus = "expired"
)

// ParsePolicyStatus maps a carrier status string onto a PolicyStatus.
// Unrecognized values are treated as pending.
func ParsePolicyStatus(raw string) PolicyStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "issued", "bound", "in_force", "in-force":
		return PolicyStatusActive
	case "cancelled", "canceled", "cancellation_pending", "terminated":
		return PolicyStatusCancelled
	case "expired", "lapsed":
		return PolicyStatusExpired
	default:
		return PolicyStatusPending
	}
}

// PolicyRequest binds coverage from an accepted quote
type PolicyRequest struct {
	QuoteID        string         `json:"quote_id" validate:"required"`
	EffectiveDate  time.Time      `json:"effective_date" validate:"required"`
	PaymentCadence PaymentCadence `json:"payment_cadence" validate:"required,oneof=annual semi_annual quarterly monthly"`
	BillingAddress Address        `json:"billing_address" validate:"required"`
}

// Installment is a single scheduled payment
type Installment struct {
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
}

// BuildPaymentSchedule splits an annual premium into equal installments
// starting at start. Rounding remainders land on the last installment.
func BuildPaymentSchedule(premium float64, cadence PaymentCadence, start time.Time) []Installment {
	n := cadence.Installments()
	step := 12 / n
	each := math.Floor(premium/float64(n)*100) / 100

	schedule := make([]Installment, n)
	var allocated float64
	for i := 0; i < n; i++ {
		amount := each
		if i == n-1 {
			amount = math.Round((premium-allocated)*100) / 100
		}
		allocated += amount
		schedule[i] = Installment{
			DueDate: addMonthsClamped(start, i*step),
			Amount:  amount,
		}
	}
	return schedule
}

// addMonthsClamped moves t forward by months, keeping the day of month but
// clamping it to the last day of the target month.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}
	hour, minute, sec := t.Clock()
	return time.Date(target.Year(), target.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// DocumentRef points to a carrier-hosted policy document
type DocumentRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// PolicyResult is the carrier's answer to a purchase or status call
type PolicyResult struct {
	Provider        string        `json:"provider"`
	PolicyNumber    string        `json:"policy_number"`
	Status          PolicyStatus  `json:"status"`
	EffectiveDate   *time.Time    `json:"effective_date,omitempty"`
	ExpirationDate  *time.Time    `json:"expiration_date,omitempty"`
	PaymentSchedule []Installment `json:"payment_schedule"`
	Documents       []DocumentRef `json:"documents"`
}

// CancellationRequest is sent to the carrier to cancel a policy
type CancellationRequest struct {
	Reason        string    `json:"reason"`
	EffectiveDate time.Time `json:"effective_date"`
}

// CancellationResult is the carrier's confirmation of a cancellation
type CancellationResult struct {
	Provider      string       `json:"provider"`
	PolicyNumber  string       `json:"policy_number"`
	Status        PolicyStatus `json:"status"`
	Reason        string       `json:"reason"`
	EffectiveDate time.Time    `json:"effective_date"`
	RefundAmount  float64      `json:"refund_amount,omitempty"`
}
