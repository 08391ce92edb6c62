// Package rules applies challenge-specific visual tests on top of the
// classifier output. The rule set is closed: a tagged registry maps each
// known challenge to its evaluator, with an explicit no-op default for
// unrecognized types.
package rules

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
)

// Challenge identifies one known challenge rule variant.
type Challenge int

// Known challenges. Order here is also the Parse precedence: more
// specific tokens are matched first, so a string containing both
// "cherry_blossom" and "recycling" resolves to the blossom rule.
const (
	ChallengeUnknown Challenge = iota
	ChallengeCherryBlossom
	ChallengeRecycling
)

// String returns the canonical token for the challenge.
func (c Challenge) String() string {
	switch c {
	case ChallengeCherryBlossom:
		return "cherry_blossom"
	case ChallengeRecycling:
		return "recycling"
	default:
		return "unknown"
	}
}

// Parse maps a raw challenge-type string onto the closed enum by
// normalized substring match, in the precedence order documented above.
func Parse(raw string) Challenge {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, ChallengeCherryBlossom.String()):
		return ChallengeCherryBlossom
	case strings.Contains(s, ChallengeRecycling.String()):
		return ChallengeRecycling
	default:
		return ChallengeUnknown
	}
}

// Evaluator applies one challenge's rules to a classification. It must
// treat its inputs as read-only and return an updated copy; an error
// means pixel analysis failed and the caller should keep the original
// classification, recording the reason.
type Evaluator interface {
	Apply(ctx context.Context, cls model.Classification, img image.Image) (model.Classification, error)
}

// Registry holds the evaluator for each known challenge.
type Registry struct {
	evaluators map[Challenge]Evaluator

	// blossom tunables
	clock         func() time.Time
	season        seasonWindow
	pinkThreshold float64

	// recycling tunables
	minConfidence float64
}

// seasonWindow is a year-agnostic month/day window.
type seasonWindow struct {
	startMonth, startDay int
	endMonth, endDay     int
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithClock injects the time source used by seasonal rules.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithSeason sets the cherry blossom season window (month/day, inclusive).
func WithSeason(startMonth, startDay, endMonth, endDay int) Option {
	return func(r *Registry) {
		r.season = seasonWindow{startMonth, startDay, endMonth, endDay}
	}
}

// WithPinkRatioThreshold sets the blossom rule's pink-pixel ratio bar.
func WithPinkRatioThreshold(t float64) Option {
	return func(r *Registry) {
		if t > 0 {
			r.pinkThreshold = t
		}
	}
}

// WithMinConfidence sets the recycling rule's confidence bar.
func WithMinConfidence(c float64) Option {
	return func(r *Registry) {
		if c > 0 {
			r.minConfidence = c
		}
	}
}

// NewRegistry creates the closed rule registry with defaults matching
// the production challenge set.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:         time.Now,
		season:        seasonWindow{startMonth: 3, startDay: 20, endMonth: 4, endDay: 15},
		pinkThreshold: 0.08,
		minConfidence: 0.7,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.evaluators = map[Challenge]Evaluator{
		ChallengeCherryBlossom: &blossomEvaluator{
			clock:     r.clock,
			season:    r.season,
			threshold: r.pinkThreshold,
		},
		ChallengeRecycling: &recyclingEvaluator{
			minConfidence: r.minConfidence,
		},
	}
	return r
}

// Apply dispatches to the evaluator for the parsed challenge. Unknown
// challenges pass the classification through unchanged, IsValid left at
// the classifier default.
func (r *Registry) Apply(ctx context.Context, rawChallenge string, cls model.Classification, img image.Image) (model.Classification, error) {
	ev, ok := r.evaluators[Parse(rawChallenge)]
	if !ok {
		return cls, nil
	}
	return ev.Apply(ctx, cls, img)
}

// contains reports whether the month/day of t falls inside the window,
// inclusive on both ends.
func (w seasonWindow) contains(t time.Time) bool {
	month, day := int(t.Month()), t.Day()
	switch {
	case month == w.startMonth && month == w.endMonth:
		return day >= w.startDay && day <= w.endDay
	case month == w.startMonth:
		return day >= w.startDay
	case month == w.endMonth:
		return day <= w.endDay
	default:
		if w.startMonth <= w.endMonth {
			return month > w.startMonth && month < w.endMonth
		}
		// Window wraps the year boundary.
		return month > w.startMonth || month < w.endMonth
	}
}
