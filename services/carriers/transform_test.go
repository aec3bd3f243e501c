package carriers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/upb/quote-gateway/models"
)

func sampleRequest() models.QuoteRequest {
	return models.QuoteRequest{
		SubmissionID: "S-1",
		Business: models.BusinessProfile{
			Name:        "Acme Bakery",
			YearsActive: 4,
			Address:     models.Address{Line1: "1 Main St", City: "Austin", State: "tx", PostalCode: "78701"},
		},
		Coverage: models.CoverageSelection{
			Types:       []string{"GL"},
			Limits:      map[string]float64{"GL": 1000000},
			Deductibles: map[string]float64{"GL": 5000},
		},
		Contact: models.ContactInfo{Name: "Jane", Email: "jane@acme.test"},
	}
}

func TestTerritoryForState(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{"NY", TerritoryNortheast},
		{"fl", TerritorySoutheast},
		{" OH ", TerritoryMidwest},
		{"TX", TerritorySouthwest},
		{"CA", TerritoryWest},
		{"PR", TerritoryUnknown},
		{"", TerritoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, TerritoryForState(tt.state))
		})
	}
}

func TestTransforms_InjectRoutingFields(t *testing.T) {
	cfg := ProviderConfig{
		Name: "hiscox",
		RoutingCodes: map[string]string{
			RoutingAgencyCode:   "AG-9",
			RoutingProducerCode: "PR-3",
		},
	}

	body := TransformFor("HISCOX")(cfg, sampleRequest())

	assert.Equal(t, "AG-9", body["agency_code"])
	assert.Equal(t, "PR-3", body["producer_code"])
	assert.Equal(t, TerritorySouthwest, body["rating_territory"])
	assert.Equal(t, "S-1", body["submission_id"])

	business := body["business"].(map[string]any)
	assert.Equal(t, "Acme Bakery", business["name"])
}

func TestTransforms_BuiltIns(t *testing.T) {
	req := sampleRequest()

	coterie := TransformFor("coterie")(ProviderConfig{RoutingCodes: map[string]string{RoutingProducerID: "P-7"}}, req)
	assert.Equal(t, "P-7", coterie["producer_id"])
	assert.Equal(t, TerritorySouthwest, coterie["territory"])

	next := TransformFor("next")(ProviderConfig{RoutingCodes: map[string]string{RoutingAgentID: "AGT"}}, req)
	assert.Equal(t, "AGT", next["agent_id"])
	assert.Equal(t, "tx", next["state"])
}

func TestTransformFor_FallsBackToDefault(t *testing.T) {
	body := TransformFor("unlisted")(ProviderConfig{}, sampleRequest())

	assert.Equal(t, "S-1", body["submission_id"])
	assert.NotContains(t, body, "territory")
	assert.NotContains(t, body, "agency_code")
}

func TestRegisterTransform(t *testing.T) {
	RegisterTransform("Pie", func(cfg ProviderConfig, req models.QuoteRequest) map[string]any {
		return map[string]any{"ref": req.SubmissionID}
	})

	body := TransformFor("pie")(ProviderConfig{}, sampleRequest())
	assert.Equal(t, map[string]any{"ref": "S-1"}, body)
}
