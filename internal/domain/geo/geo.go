// Package geo scores a submission's location against the known
// eco-location registry using great-circle distance.
package geo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/platform/imagex"
)

// Default scoring configuration constants.
const (
	defaultMaxDistanceMeters = 100.0
	defaultTimestampMaxAge   = 24 * time.Hour

	// The linear decay reaches zero at this multiple of max distance.
	decaySpan = 10.0
)

// GPSReader extracts an embedded GPS coordinate from the image file.
// ok is false when the image carries none.
type GPSReader func(path string) (lat, lon float64, ok bool, err error)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRegistry replaces the known-location registry. The slice is
// copied; registry order is significant for tie-breaking.
func WithRegistry(locations []model.EcoLocation) Option {
	return func(s *Scorer) {
		if len(locations) > 0 {
			s.registry = make([]model.EcoLocation, len(locations))
			copy(s.registry, locations)
		}
	}
}

// WithMaxDistance sets the radius (meters) inside which score is 1.0.
func WithMaxDistance(meters float64) Option {
	return func(s *Scorer) {
		if meters > 0 {
			s.maxDistance = meters
		}
	}
}

// WithTimestampMaxAge sets how old a claimed timestamp may be and still
// count as valid.
func WithTimestampMaxAge(age time.Duration) Option {
	return func(s *Scorer) {
		if age > 0 {
			s.maxAge = age
		}
	}
}

// WithClock injects the time source for timestamp validation.
func WithClock(clock func() time.Time) Option {
	return func(s *Scorer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithGPSReader injects the EXIF GPS extraction function.
func WithGPSReader(r GPSReader) Option {
	return func(s *Scorer) {
		if r != nil {
			s.gps = r
		}
	}
}

// Scorer computes location scores against an immutable registry.
type Scorer struct {
	registry    []model.EcoLocation
	maxDistance float64
	maxAge      time.Duration
	clock       func() time.Time
	gps         GPSReader
}

// NewScorer creates a Scorer with configuration options. The default
// registry is the built-in eco-location list.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		registry:    DefaultRegistry(),
		maxDistance: defaultMaxDistanceMeters,
		maxAge:      defaultTimestampMaxAge,
		clock:       time.Now,
		gps:         imagex.GPS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns a copy of the known-location registry.
func (s *Scorer) Registry() []model.EcoLocation {
	out := make([]model.EcoLocation, len(s.registry))
	copy(out, s.registry)
	return out
}

// Score resolves the submission's coordinate (embedded GPS preferred
// over the claimed one), finds the nearest registry entry and converts
// distance to a 0-1 score. The returned result is usable even when err
// is non-nil: it then carries the signal's safest defaults.
func (s *Scorer) Score(ctx context.Context, claimed *model.Coordinate, imagePath string, claimedTS *int64) (model.LocationResult, error) {
	tsValid := s.timestampValid(claimedTS)
	degraded := model.LocationResult{Score: 0, TimestampValid: tsValid}

	if err := ctx.Err(); err != nil {
		return degraded, err
	}

	actual, source, err := s.resolveCoordinate(claimed, imagePath)
	if err != nil {
		return degraded, err
	}

	nearest, distance, err := s.nearest(actual)
	if err != nil {
		return degraded, err
	}

	score := 1.0
	if distance > s.maxDistance {
		score = math.Max(0, 1-distance/(s.maxDistance*decaySpan))
	}

	return model.LocationResult{
		Score:          model.Round4(score),
		DistanceMeters: model.Round4(distance),
		Nearest:        nearest,
		Source:         source,
		TimestampValid: tsValid,
	}, nil
}

// resolveCoordinate prefers the image's embedded GPS coordinate and
// falls back to the claimed one.
func (s *Scorer) resolveCoordinate(claimed *model.Coordinate, imagePath string) (model.Coordinate, model.LocationSource, error) {
	if imagePath != "" {
		lat, lon, ok, err := s.gps(imagePath)
		if err == nil && ok {
			return model.Coordinate{Lat: lat, Lon: lon}, model.SourceImage, nil
		}
	}
	if claimed != nil {
		return *claimed, model.SourceUser, nil
	}
	return model.Coordinate{}, "", fmt.Errorf("%w: no embedded GPS and no claimed coordinate", ErrNoLocationData)
}

// nearest returns the closest registry entry by great-circle distance.
// The comparison uses strict < so ties keep the first entry seen in
// registry order.
func (s *Scorer) nearest(c model.Coordinate) (*model.EcoLocation, float64, error) {
	if len(s.registry) == 0 {
		return nil, 0, ErrEmptyRegistry
	}

	best := -1
	minDistance := math.Inf(1)
	for i := range s.registry {
		d := Haversine(c, s.registry[i].Coordinate)
		if d < minDistance {
			minDistance = d
			best = i
		}
	}
	loc := s.registry[best]
	return &loc, minDistance, nil
}

// timestampValid reports whether the claimed timestamp is absent or
// recent enough. Stale timestamps never hard-fail the call; the flag is
// surfaced for the fusion engine to weigh.
func (s *Scorer) timestampValid(ts *int64) bool {
	if ts == nil {
		return true
	}
	age := s.clock().Unix() - *ts
	return age <= int64(s.maxAge/time.Second)
}
