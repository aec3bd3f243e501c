package carriers

import (
	"sync"

	"github.com/upb/quote-gateway/models"
)

// Routing code keys read from ProviderConfig.RoutingCodes
const (
	RoutingAgencyCode   = "agency_code"
	RoutingProducerCode = "producer_code"
	RoutingProducerID   = "producer_id"
	RoutingAgentID      = "agent_id"
)

// TransformFunc turns a carrier-agnostic quote request into the carrier's
// request body. Implementations must be pure.
type TransformFunc func(cfg ProviderConfig, req models.QuoteRequest) map[string]any

var (
	transformsMu sync.RWMutex
	transforms   = map[string]TransformFunc{
		"coterie": coterieTransform,
		"hiscox":  hiscoxTransform,
		"next":    nextTransform,
	}
)

// RegisterTransform adds or replaces the transform for a carrier
func RegisterTransform(name string, fn TransformFunc) {
	transformsMu.Lock()
	defer transformsMu.Unlock()

	transforms[normalizeName(name)] = fn
}

// TransformFor returns the carrier's transform, or DefaultTransform
func TransformFor(name string) TransformFunc {
	transformsMu.RLock()
	defer transformsMu.RUnlock()

	if fn, ok := transforms[normalizeName(name)]; ok {
		return fn
	}
	return DefaultTransform
}

// DefaultTransform emits only the common business fields
func DefaultTransform(_ ProviderConfig, req models.QuoteRequest) map[string]any {
	return commonFields(req)
}

func commonFields(req models.QuoteRequest) map[string]any {
	addr := req.Business.Address
	return map[string]any{
		"submission_id": req.SubmissionID,
		"business": map[string]any{
			"name":         req.Business.Name,
			"tax_id":       req.Business.TaxID,
			"legal_form":   req.Business.LegalForm,
			"years_active": req.Business.YearsActive,
			"description":  req.Business.Description,
			"address": map[string]any{
				"line1":       addr.Line1,
				"line2":       addr.Line2,
				"city":        addr.City,
				"state":       addr.State,
				"postal_code": addr.PostalCode,
				"country":     addr.Country,
			},
		},
		"coverage": map[string]any{
			"types":       req.Coverage.Types,
			"limits":      req.Coverage.Limits,
			"deductibles": req.Coverage.Deductibles,
		},
		"contact": map[string]any{
			"name":  req.Contact.Name,
			"email": req.Contact.Email,
			"phone": req.Contact.Phone,
		},
	}
}

func coterieTransform(cfg ProviderConfig, req models.QuoteRequest) map[string]any {
	body := commonFields(req)
	body["producer_id"] = cfg.RoutingCode(RoutingProducerID)
	body["territory"] = TerritoryForState(req.Business.Address.State)
	return body
}

func hiscoxTransform(cfg ProviderConfig, req models.QuoteRequest) map[string]any {
	body := commonFields(req)
	body["agency_code"] = cfg.RoutingCode(RoutingAgencyCode)
	body["producer_code"] = cfg.RoutingCode(RoutingProducerCode)
	body["rating_territory"] = TerritoryForState(req.Business.Address.State)
	return body
}

func nextTransform(cfg ProviderConfig, req models.QuoteRequest) map[string]any {
	body := commonFields(req)
	body["agent_id"] = cfg.RoutingCode(RoutingAgentID)
	body["state"] = req.Business.Address.State
	body["territory"] = TerritoryForState(req.Business.Address.State)
	return body
}
