package geo

import "errors"

// Sentinel kinds for location scoring errors.
var (
	// ErrNoLocationData marks a request with neither an embedded GPS
	// coordinate nor a claimed one. The signal degrades to score 0.
	ErrNoLocationData = errors.New("no location data available")

	// ErrEmptyRegistry marks a scorer built without any known locations.
	ErrEmptyRegistry = errors.New("empty eco-location registry")
)
