package webhooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/upb/quote-gateway/models"
)

// anyProvider keys aliases that apply to every carrier
const anyProvider = "*"

// ErrMalformedPayload is returned for bodies that are not a JSON object with an event type
var ErrMalformedPayload = errors.New("malformed webhook payload")

var (
	aliasesMu sync.RWMutex
	aliases   = map[string]map[string]models.WebhookEventType{
		anyProvider: {
			"quote-completed":   models.EventQuoteReady,
			"quote-available":   models.EventQuoteReady,
			"policy-bound":      models.EventPolicyIssued,
			"policy-canceled":   models.EventPolicyCancelled,
			"payment-succeeded": models.EventPaymentReceived,
			"payment-completed": models.EventPaymentReceived,
		},
		"hiscox": {
			"bind-confirmed":      models.EventPolicyIssued,
			"cancellation-issued": models.EventPolicyCancelled,
		},
		"coterie": {
			"policy-created": models.EventPolicyIssued,
			"quote-priced":   models.EventQuoteReady,
		},
		"next": {
			"policy-purchased": models.EventPolicyIssued,
			"payment-posted":   models.EventPaymentReceived,
		},
	}
)

// RegisterEventAlias maps a carrier-specific event name onto a canonical type.
// An empty provider registers the alias for every carrier.
func RegisterEventAlias(provider, raw string, canonical models.WebhookEventType) {
	key := strings.ToLower(strings.TrimSpace(provider))
	if key == "" {
		key = anyProvider
	}

	aliasesMu.Lock()
	defer aliasesMu.Unlock()

	if aliases[key] == nil {
		aliases[key] = make(map[string]models.WebhookEventType)
	}
	aliases[key][NormalizeEventType(raw)] = canonical
}

// NormalizeEventType lower-cases and turns '_' and '.' into '-'
func NormalizeEventType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("_", "-", ".", "-").Replace(s)
}

// CanonicalEventType resolves a carrier event name. ok is false for unrecognized events.
func CanonicalEventType(provider, raw string) (models.WebhookEventType, bool) {
	normalized := NormalizeEventType(raw)
	switch t := models.WebhookEventType(normalized); t {
	case models.EventQuoteReady, models.EventPolicyIssued, models.EventPolicyCancelled, models.EventPaymentReceived:
		return t, true
	}

	aliasesMu.RLock()
	defer aliasesMu.RUnlock()

	if t, ok := aliases[strings.ToLower(provider)][normalized]; ok {
		return t, true
	}
	if t, ok := aliases[anyProvider][normalized]; ok {
		return t, true
	}
	return models.WebhookEventType(normalized), false
}

// ParseEvent decodes a raw carrier payload. Identifiers are read from the top
// level first and then from a nested "data" object.
func ParseEvent(provider string, raw []byte) (*models.WebhookEvent, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var data map[string]json.RawMessage
	if nested, ok := body["data"]; ok {
		_ = json.Unmarshal(nested, &data)
	}

	lookup := func(keys ...string) string {
		for _, m := range []map[string]json.RawMessage{body, data} {
			for _, k := range keys {
				if v := rawString(m[k]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	eventType := lookup("event_type", "type", "event")
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	evt := &models.WebhookEvent{
		Provider:  strings.ToLower(strings.TrimSpace(provider)),
		Type:      models.WebhookEventType(eventType),
		EventID:   lookup("event_id", "id"),
		QuoteID:   lookup("quote_id", "quoteId"),
		PolicyID:  lookup("policy_id", "policy_number", "policyNumber"),
		PaymentID: lookup("payment_id", "paymentId"),
		Payload:   json.RawMessage(raw),
	}
	if amount := lookup("amount"); amount != "" {
		if f, err := strconv.ParseFloat(amount, 64); err == nil {
			evt.Amount = f
		}
	}
	return evt, nil
}

// rawString renders a JSON string or number as a string; anything else is ""
func rawString(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}
