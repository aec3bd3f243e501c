package carriers

import "strings"

// Rating territories used by carriers that price by region
const (
	TerritoryNortheast = "northeast"
	TerritorySoutheast = "southeast"
	TerritoryMidwest   = "midwest"
	TerritorySouthwest = "southwest"
	TerritoryWest      = "west"
	TerritoryUnknown   = "unknown"
)

var stateTerritories = map[string]string{
	"CT": TerritoryNortheast, "DE": TerritoryNortheast, "DC": TerritoryNortheast,
	"ME": TerritoryNortheast, "MD": TerritoryNortheast, "MA": TerritoryNortheast,
	"NH": TerritoryNortheast, "NJ": TerritoryNortheast, "NY": TerritoryNortheast,
	"PA": TerritoryNortheast, "RI": TerritoryNortheast, "VT": TerritoryNortheast,

	"AL": TerritorySoutheast, "AR": TerritorySoutheast, "FL": TerritorySoutheast,
	"GA": TerritorySoutheast, "KY": TerritorySoutheast, "LA": TerritorySoutheast,
	"MS": TerritorySoutheast, "NC": TerritorySoutheast, "SC": TerritorySoutheast,
	"TN": TerritorySoutheast, "VA": TerritorySoutheast, "WV": TerritorySoutheast,

	"IL": TerritoryMidwest, "IN": TerritoryMidwest, "IA": TerritoryMidwest,
	"KS": TerritoryMidwest, "MI": TerritoryMidwest, "MN": TerritoryMidwest,
	"MO": TerritoryMidwest, "NE": TerritoryMidwest, "ND": TerritoryMidwest,
	"OH": TerritoryMidwest, "SD": TerritoryMidwest, "WI": TerritoryMidwest,

	"AZ": TerritorySouthwest, "NM": TerritorySouthwest, "OK": TerritorySouthwest,
	"TX": TerritorySouthwest,

	"AK": TerritoryWest, "CA": TerritoryWest, "CO": TerritoryWest,
	"HI": TerritoryWest, "ID": TerritoryWest, "MT": TerritoryWest,
	"NV": TerritoryWest, "OR": TerritoryWest, "UT": TerritoryWest,
	"WA": TerritoryWest, "WY": TerritoryWest,
}

// TerritoryForState maps a two-letter US state code to its rating territory
func TerritoryForState(state string) string {
	if t, ok := stateTerritories[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return t
	}
	return TerritoryUnknown
}
