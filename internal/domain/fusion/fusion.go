// Package fusion combines the classification, location and fraud
// signals into one explainable admit/reject decision.
package fusion

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/platform/imagex"
	"github.com/ecowander/ecoproof/pkg/logger"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Default gating thresholds.
const (
	defaultLocationMinScore = 0.7
	defaultFraudMaxScore    = 0.5
)

// Signal names used in the degradation trail and metrics.
const (
	SignalClassification = "classification"
	SignalRules          = "rules"
	SignalLocation       = "location"
	SignalFraud          = "fraud"
)

// Classifier runs the image model.
type Classifier interface {
	Classify(ctx context.Context, img image.Image, format string) (model.Classification, error)
}

// RuleApplier applies challenge-specific rules to a classification.
type RuleApplier interface {
	Apply(ctx context.Context, challenge string, cls model.Classification, img image.Image) (model.Classification, error)
}

// LocationScorer scores the submission's coordinate.
type LocationScorer interface {
	Score(ctx context.Context, claimed *model.Coordinate, imagePath string, claimedTS *int64) (model.LocationResult, error)
}

// FraudScorer scores the submission for duplication and manipulation.
type FraudScorer interface {
	Score(ctx context.Context, img image.Image, path string) (model.FraudResult, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the fusion weights; they are renormalized to sum 1.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Confidence+w.Location+w.Fraud > 0 {
			e.weights = w.normalized()
		}
	}
}

// WithLocationMinScore sets the location gate.
func WithLocationMinScore(min float64) Option {
	return func(e *Engine) {
		if min >= 0 && min <= 1 {
			e.locationMinScore = min
		}
	}
}

// WithFraudMaxScore sets the fraud gate.
func WithFraudMaxScore(max float64) Option {
	return func(e *Engine) {
		if max >= 0 && max <= 1 {
			e.fraudMaxScore = max
		}
	}
}

// WithMaxImageBytes rejects submissions whose image file exceeds the
// limit. Zero disables the check.
func WithMaxImageBytes(max int64) Option {
	return func(e *Engine) {
		if max >= 0 {
			e.maxImageBytes = max
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine orchestrates the sub-checks and fuses their outputs.
type Engine struct {
	classifier Classifier
	rules      RuleApplier
	location   LocationScorer
	fraud      FraudScorer

	weights          Weights
	locationMinScore float64
	fraudMaxScore    float64
	maxImageBytes    int64

	logger logger.Logger
}

// New creates a fusion engine over the four collaborators.
func New(classifier Classifier, rules RuleApplier, location LocationScorer, fraud FraudScorer, opts ...Option) *Engine {
	e := &Engine{
		classifier:       classifier,
		rules:            rules,
		location:         location,
		fraud:            fraud,
		weights:          DefaultWeights(),
		locationMinScore: defaultLocationMinScore,
		fraudMaxScore:    defaultFraudMaxScore,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Verify runs the full multi-signal verification for one request.
//
// Structural request errors are hard failures returned to the caller.
// Everything else degrades: a failing sub-check falls back to its
// safest value (not-valid / score 0 / fraud 0.5), the reason lands in
// the result's Degraded trail, and the gate rejects the submission.
func (e *Engine) Verify(ctx context.Context, req model.VerificationRequest) (model.VerificationResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return model.VerificationResult{}, err
	}
	info, err := os.Stat(req.ImagePath)
	if err != nil {
		return model.VerificationResult{}, fmt.Errorf("%w: image not readable: %w", model.ErrValidation, err)
	}
	if e.maxImageBytes > 0 && info.Size() > e.maxImageBytes {
		return model.VerificationResult{}, fmt.Errorf("%w: image exceeds %d bytes", model.ErrValidation, e.maxImageBytes)
	}

	// One decode, shared read-only by the pixel-based sub-checks.
	img, format, decodeErr := imagex.Decode(req.ImagePath)

	var (
		cls model.Classification
		loc model.LocationResult
		fr  model.FraudResult

		clsReason, rulesReason, locReason, frReason string
	)

	// The three sub-checks are independent; each owns its result slot.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer e.observe(SignalClassification, time.Now())
		cls, clsReason, rulesReason = e.runClassification(gctx, req, img, format, decodeErr)
		return nil
	})

	g.Go(func() error {
		defer e.observe(SignalLocation, time.Now())
		var err error
		loc, err = e.location.Score(gctx, req.Claimed, req.ImagePath, req.ClaimedTimestamp)
		if err != nil {
			locReason = err.Error()
		}
		return nil
	})

	g.Go(func() error {
		defer e.observe(SignalFraud, time.Now())
		if decodeErr != nil {
			fr = model.FraudResult{FraudScore: defaultFraudMaxScore}
			frReason = decodeErr.Error()
			return nil
		}
		var err error
		fr, err = e.fraud.Score(gctx, img, req.ImagePath)
		if err != nil {
			frReason = err.Error()
		}
		return nil
	})

	// The closures never return errors; degradation is recorded per signal.
	_ = g.Wait()

	degraded := map[string]string{}
	for signal, reason := range map[string]string{
		SignalClassification: clsReason,
		SignalRules:          rulesReason,
		SignalLocation:       locReason,
		SignalFraud:          frReason,
	} {
		if reason != "" {
			degraded[signal] = reason
			metrics.RecordSubcheckDegraded(signal)
			e.warn(ctx, "sub-check degraded",
				logger.String("signal", signal),
				logger.String("reason", reason),
			)
		}
	}
	if len(degraded) == 0 {
		degraded = nil
	}

	verified := cls.IsValid &&
		loc.Score >= e.locationMinScore &&
		loc.TimestampValid &&
		fr.FraudScore <= e.fraudMaxScore &&
		degraded == nil

	result := model.VerificationResult{
		ID:             uuid.NewString(),
		IsVerified:     verified,
		OverallScore:   model.Round4(e.weights.Combine(cls.Confidence, loc.Score, fr.FraudScore)),
		Classification: cls,
		Location:       loc,
		Fraud:          fr,
		ChallengeType:  req.ChallengeType,
		Degraded:       degraded,
		GeneratedAt:    time.Now().UTC(),
	}

	metrics.RecordVerification(verified)
	metrics.RecordVerificationLatency(float64(time.Since(start).Milliseconds()))
	return result, nil
}

// runClassification runs the classifier and the challenge rules,
// degrading each independently.
func (e *Engine) runClassification(ctx context.Context, req model.VerificationRequest, img image.Image, format string, decodeErr error) (cls model.Classification, clsReason, rulesReason string) {
	if decodeErr != nil {
		return model.Classification{}, decodeErr.Error(), ""
	}

	cls, err := e.classifier.Classify(ctx, img, format)
	if err != nil {
		return model.Classification{}, err.Error(), ""
	}

	ruled, err := e.rules.Apply(ctx, req.ChallengeType, cls, img)
	if err != nil {
		// Keep the classifier output; the rule failure is recorded, not
		// silently swallowed.
		return cls, "", err.Error()
	}
	return ruled, "", ""
}

func (e *Engine) observe(signal string, start time.Time) {
	metrics.RecordSubcheckLatency(signal, float64(time.Since(start).Milliseconds()))
}

func (e *Engine) warn(ctx context.Context, msg string, fields ...logger.Field) {
	if e.logger != nil {
		e.logger.Warn(ctx, msg, fields...)
	}
}
