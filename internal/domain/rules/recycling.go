package rules

import (
	"context"
	"image"

	"github.com/ecowander/ecoproof/internal/domain/model"
)

// recyclingClass is the label that marks a genuine recycling action.
const recyclingClass = "valid_recycling"

// recyclingEvaluator validates recycling submissions purely from the
// classifier output: the right class at sufficient confidence.
type recyclingEvaluator struct {
	minConfidence float64
}

func (e *recyclingEvaluator) Apply(_ context.Context, cls model.Classification, _ image.Image) (model.Classification, error) {
	out := cls
	out.IsValid = cls.PredictedClass == recyclingClass && cls.Confidence > e.minConfidence
	return out, nil
}
