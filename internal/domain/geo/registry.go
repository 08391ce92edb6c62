package geo

import (
	"github.com/ecowander/ecoproof/internal/domain/model"
)

// DefaultRegistry returns the built-in known eco-location list. The
// registry is created once at process start and never mutated.
func DefaultRegistry() []model.EcoLocation {
	return []model.EcoLocation{
		{
			Name:           "Tokyo Central Park Recycling Center",
			Coordinate:     model.Coordinate{Lat: 35.682839, Lon: 139.759455},
			RadiusMeters:   50,
			ChallengeTypes: []string{"recycling", "waste_management"},
			Description:    "Central recycling point with proper waste separation",
		},
		{
			Name:           "Kyoto Cherry Blossom Conservation Area",
			Coordinate:     model.Coordinate{Lat: 35.0116, Lon: 135.7681},
			RadiusMeters:   200,
			ChallengeTypes: []string{"cherry_blossom", "nature_conservation"},
			Description:    "Protected area for cherry blossom trees",
		},
		{
			Name:           "Osaka Eco Station",
			Coordinate:     model.Coordinate{Lat: 34.6937, Lon: 135.5023},
			RadiusMeters:   30,
			ChallengeTypes: []string{"recycling", "eco_education"},
			Description:    "Environmental education and recycling center",
		},
	}
}

// FilterByChallenge returns the registry entries supporting the given
// challenge type, preserving registry order.
func FilterByChallenge(registry []model.EcoLocation, challenge string) []model.EcoLocation {
	var out []model.EcoLocation
	for _, loc := range registry {
		if loc.Supports(challenge) {
			out = append(out, loc)
		}
	}
	return out
}
