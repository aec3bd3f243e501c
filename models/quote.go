package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/upb/quote-gateway/utils"
)

// QuoteStatus represents the lifecycle state of a carrier quote
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// ParseQuoteStatus maps a carrier status string onto a QuoteStatus.
// Unrecognized values are treated as pending.
func ParseQuoteStatus(raw string) QuoteStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "bindable", "quoted", "accepted":
		return QuoteStatusApproved
	case "rejected", "declined", "ineligible":
		return QuoteStatusRejected
	case "expired":
		return QuoteStatusExpired
	default:
		return QuoteStatusPending
	}
}

// Address is a postal address
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required,len=2"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country,omitempty"`
}

// BusinessProfile describes the insured business
type BusinessProfile struct {
	Name        string  `json:"name" validate:"required"`
	TaxID       string  `json:"tax_id,omitempty"`
	LegalForm   string  `json:"legal_form,omitempty"` // llc, corporation, sole_proprietorship, ...
	YearsActive int     `json:"years_active" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
	Address     Address `json:"address" validate:"required"`
}

// CoverageSelection lists the requested coverage lines with their limits and deductibles
type CoverageSelection struct {
	Types       []string           `json:"types" validate:"required,min=1,dive,required"`
	Limits      map[string]float64 `json:"limits,omitempty"`
	Deductibles map[string]float64 `json:"deductibles,omitempty"`
}

// ContactInfo identifies the person the carrier should contact
type ContactInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// QuoteRequest is the carrier-agnostic quote request
type QuoteRequest struct {
	SubmissionID string            `json:"submission_id" validate:"required"`
	Business     BusinessProfile   `json:"business" validate:"required"`
	Coverage     CoverageSelection `json:"coverage" validate:"required"`
	Contact      ContactInfo       `json:"contact" validate:"required"`
}

// Validate checks struct tags and that every limit/deductible key is a selected coverage type
func (r *QuoteRequest) Validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return err
	}

	selected := make(map[string]struct{}, len(r.Coverage.Types))
	for _, t := range r.Coverage.Types {
		selected[t] = struct{}{}
	}

	fields := make(map[string]string)
	for key := range r.Coverage.Limits {
		if _, ok := selected[key]; !ok {
			fields["coverage.limits."+key] = fmt.Sprintf("limit given for unselected coverage %s", key)
		}
	}
	for key := range r.Coverage.Deductibles {
		if _, ok := selected[key]; !ok {
			fields["coverage.deductibles."+key] = fmt.Sprintf("deductible given for unselected coverage %s", key)
		}
	}
	if len(fields) > 0 {
		return &utils.ValidationError{Message: "Validation failed", Fields: fields}
	}
	return nil
}

// CoverageLine is one priced coverage item in a carrier quote
type CoverageLine struct {
	Type       string  `json:"type"`
	Limit      float64 `json:"limit"`
	Deductible float64 `json:"deductible"`
	Premium    float64 `json:"premium"`
}

// QuoteResult is the outcome of a single carrier quote call
type QuoteResult struct {
	Provider          string         `json:"provider"`
	QuoteID           string         `json:"quote_id"`
	Premium           float64        `json:"premium"`
	Coverages         []CoverageLine `json:"coverages"`
	ValidUntil        *time.Time     `json:"valid_until,omitempty"`
	Status            QuoteStatus    `json:"status"`
	RequiredDocuments []string       `json:"required_documents"`
}

// IsExpiredAt reports whether the quote's validity window has closed at t
func (q *QuoteResult) IsExpiredAt(t time.Time) bool {
	if q.Status == QuoteStatusExpired {
		return true
	}
	return q.ValidUntil != nil && t.After(*q.ValidUntil)
}

// AggregatedQuoteSet maps provider name to its quote. A provider is present only if its call succeeded.
type AggregatedQuoteSet map[string]*QuoteResult

// Providers returns the provider names present in the set
func (s AggregatedQuoteSet) Providers() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}
