// Package fraud detects duplicate and manipulated submissions using a
// perceptual hash and cheap image heuristics.
package fraud

import (
	"context"
	"fmt"
	"image"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Default fraud configuration constants.
const (
	defaultHashSize      = 16
	defaultEdgeThreshold = 500.0
	defaultEditedScore   = 0.5

	// duplicateScore dominates every other signal.
	duplicateScore = 0.9

	// conservativeScore is returned whenever analysis itself fails:
	// fail toward suspicion, not toward trust.
	conservativeScore = 0.5
)

// HashStore records seen image fingerprints. SeenAndRecord must be
// atomic: concurrent submissions of the same fingerprint may report it
// new at most once.
type HashStore interface {
	// SeenAndRecord atomically checks whether hash was seen and records
	// it if not. Returns true if the hash was already present.
	SeenAndRecord(ctx context.Context, hash string) (bool, error)

	// Size returns the number of recorded fingerprints.
	Size(ctx context.Context) (int64, error)
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithHashSize sets the perceptual hash edge length in pixels.
func WithHashSize(size int) Option {
	return func(s *Scorer) {
		if size > 0 {
			s.hashSize = size
		}
	}
}

// WithEdgeVarianceThreshold sets the edge-variance level above which an
// image is flagged as edited. Tunable, not load-bearing.
func WithEdgeVarianceThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 {
			s.edgeThreshold = t
		}
	}
}

// WithEditedScore sets the fraud score assigned to images that look
// edited but are not duplicates.
func WithEditedScore(score float64) Option {
	return func(s *Scorer) {
		if score >= 0 && score <= 1 {
			s.editedScore = score
		}
	}
}

// Scorer computes fraud scores against an injected hash store.
type Scorer struct {
	store         HashStore
	hashSize      int
	edgeThreshold float64
	editedScore   float64
}

// NewScorer creates a fraud scorer backed by the given hash store.
func NewScorer(store HashStore, opts ...Option) *Scorer {
	s := &Scorer{
		store:         store,
		hashSize:      defaultHashSize,
		edgeThreshold: defaultEdgeThreshold,
		editedScore:   defaultEditedScore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score fingerprints the image, checks it against the seen-hash store
// (recording it as a side effect on first sight) and runs manipulation
// heuristics. When err is non-nil the returned result still carries the
// conservative defaults and is safe to use.
func (s *Scorer) Score(ctx context.Context, img image.Image, path string) (model.FraudResult, error) {
	conservative := model.FraudResult{FraudScore: conservativeScore}

	if img == nil {
		return conservative, fmt.Errorf("%w: no decoded image", ErrAnalysis)
	}
	if err := ctx.Err(); err != nil {
		return conservative, err
	}

	hash := Hash(img, s.hashSize)
	conservative.ImageHash = hash

	isDuplicate, err := s.store.SeenAndRecord(ctx, hash)
	if err != nil {
		return conservative, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if isDuplicate {
		metrics.RecordVerificationDuplicate()
	}
	if size, err := s.store.Size(ctx); err == nil {
		metrics.UpdateHashStoreSize(size)
	}

	flags := s.manipulation(img, path)

	score := 0.0
	switch {
	case isDuplicate:
		score = duplicateScore
	case flags.IsEdited:
		score = s.editedScore
	}

	return model.FraudResult{
		FraudScore:   model.Round4(score),
		ImageHash:    hash,
		IsDuplicate:  isDuplicate,
		Manipulation: flags,
	}, nil
}
