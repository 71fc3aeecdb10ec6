package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Graph node shapes, keyed by their natural identities.

type TrialNode struct {
	NCTID  string
	Title  string
	Status string
	Phase  []string
}

type ConditionNode struct {
	Name     string
	Category string
}

// NormalizedName is the case-insensitive lookup form stored alongside the
// display name.
func (c ConditionNode) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

type LocationNode struct {
	City    string
	State   string
	Country string
	Lat     *float64
	Lon     *float64
}

// ID is the composite "City, Region" identity. Two locations sharing a city
// but differing in state/country are distinct nodes.
func (l LocationNode) ID() string {
	return FormatLocationID(l.City, l.State, l.Country)
}

// ParseLocationID splits a "City, Region" identity back into a node. A
// two-letter region is treated as a US state, anything longer as a country;
// the same heuristic the projection has always used.
func ParseLocationID(locationID string) (LocationNode, bool) {
	parts := strings.SplitN(locationID, ", ", 2)
	if len(parts) != 2 {
		return LocationNode{}, false
	}
	city := strings.TrimSpace(parts[0])
	region := strings.TrimSpace(parts[1])
	if city == "" || region == "" {
		return LocationNode{}, false
	}
	if len(region) == 2 {
		return LocationNode{City: city, State: region, Country: "USA"}, true
	}
	return LocationNode{City: city, Country: region}, true
}

type PatientNode struct {
	UserID uuid.UUID
	Age    *int
	Gender string
}
