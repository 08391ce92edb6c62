package geo

import (
	"math"

	"github.com/ecowander/ecoproof/internal/domain/model"
)

// earthRadiusMeters is the mean Earth radius used by the haversine
// formula. The spherical approximation is well under 0.5% off an
// ellipsoidal model, which is immaterial at the registry's radii.
const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance between two coordinates
// in meters.
func Haversine(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
