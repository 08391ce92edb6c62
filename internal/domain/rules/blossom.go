package rules

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/platform/imagex"
)

// Pink-pixel thresholds, tuned for JPEG-compressed blossom photos.
const (
	pinkRedMin       = 180
	pinkGreenMin     = 80
	pinkBlueMin      = 120
	pinkRedOverGreen = 1.3

	seasonalBoost  = 0.15
	pinkBoostScale = 0.5
)

// blossomEvaluator verifies cherry blossom submissions: enough pink in
// the full-resolution pixels and a submission date inside the season.
type blossomEvaluator struct {
	clock     func() time.Time
	season    seasonWindow
	threshold float64
}

// Apply computes the pink-pixel ratio and the seasonal flag, sets
// IsValid from both, and applies additive confidence boosts. Boosts are
// independently capped at 1.0 and never reduce confidence.
func (e *blossomEvaluator) Apply(_ context.Context, cls model.Classification, img image.Image) (model.Classification, error) {
	if img == nil {
		return cls, fmt.Errorf("%w: no decoded image", ErrPixelAnalysis)
	}
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return cls, fmt.Errorf("%w: empty image", ErrPixelAnalysis)
	}

	rgba := imagex.ToRGBA(img)
	pink := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := rgba.RGBAAt(x, y)
			if px.R > pinkRedMin && px.G > pinkGreenMin && px.B > pinkBlueMin &&
				float64(px.R) > float64(px.G)*pinkRedOverGreen {
				pink++
			}
		}
	}
	ratio := float64(pink) / float64(total)
	seasonal := e.season.contains(e.clock())

	out := cls
	out.PinkPixelRatio = model.Round4(ratio)
	out.SeasonalValid = seasonal
	out.IsValid = seasonal && ratio > e.threshold

	if seasonal {
		out.Confidence = capOne(out.Confidence + seasonalBoost)
	}
	if ratio > e.threshold {
		out.Confidence = capOne(out.Confidence + ratio*pinkBoostScale)
	}
	out.Confidence = model.Round4(out.Confidence)
	return out, nil
}

func capOne(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
