// Package classify wraps a frozen 5-class image model behind the
// verification domain's classification contract.
package classify

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/platform/imagex"
	"github.com/ecowander/ecoproof/pkg/metrics"
)

// Model is the loaded inference handle the classifier drives: a fixed
// (1,H,W,3) float32 input, one forward pass, one probability vector out.
type Model interface {
	InputWidth() int
	InputHeight() int
	SetInput(data []float32) error
	Invoke(ctx context.Context) error
	Output() ([]float32, error)
	Close() error
}

// Allowed image encodings.
var allowedFormats = map[string]bool{
	imagex.FormatJPEG: true,
	imagex.FormatPNG:  true,
}

// Classifier runs preprocessed images through the model and maps the
// output vector onto the fixed label list.
type Classifier struct {
	// The handle is stateful (set input, invoke, read output), so one
	// forward pass at a time.
	mu     sync.Mutex
	model  Model
	labels []string
}

// New creates a Classifier. The label list must already be validated by
// LoadLabels.
func New(m Model, labels []string) (*Classifier, error) {
	if len(labels) != ClassCount {
		return nil, fmt.Errorf("%w: expected %d labels, got %d", ErrLabelMap, ClassCount, len(labels))
	}
	return &Classifier{model: m, labels: labels}, nil
}

// Labels returns the ordered label list.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Classify runs one forward pass for the decoded image. IsValid on the
// returned classification defaults to false; challenge rules decide it.
func (c *Classifier) Classify(ctx context.Context, img image.Image, format string) (model.Classification, error) {
	if !allowedFormats[format] {
		return model.Classification{}, fmt.Errorf("%w: %q", ErrImageFormat, format)
	}

	tensor := c.preprocess(img)

	start := time.Now()
	probs, err := c.invoke(ctx, tensor)
	metrics.RecordInferenceLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return model.Classification{}, err
	}

	if len(probs) != len(c.labels) {
		return model.Classification{}, fmt.Errorf("%w: model produced %d outputs for %d labels", ErrModelInput, len(probs), len(c.labels))
	}

	// An all-zero vector means an uninitialized or corrupt output
	// tensor, not a confident prediction.
	allZero := true
	for _, p := range probs {
		if p != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return model.Classification{}, fmt.Errorf("%w: model returned all zeros", ErrModelInput)
	}

	best := 0
	scores := make(map[string]float64, len(c.labels))
	for i, p := range probs {
		scores[c.labels[i]] = model.Round4(float64(p))
		if p > probs[best] {
			best = i
		}
	}

	return model.Classification{
		PredictedClass: c.labels[best],
		Confidence:     model.Round4(float64(probs[best])),
		ClassScores:    scores,
		IsValid:        false,
	}, nil
}

// preprocess scales the image into the model's input shape and flattens
// it to NHWC float32 in [0,1] with a leading batch axis of 1.
func (c *Classifier) preprocess(img image.Image) []float32 {
	w, h := c.model.InputWidth(), c.model.InputHeight()
	fitted := imagex.AspectFit(img, w, h)

	tensor := make([]float32, h*w*3)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := fitted.RGBAAt(x, y)
			tensor[i] = float32(px.R) / 255.0
			tensor[i+1] = float32(px.G) / 255.0
			tensor[i+2] = float32(px.B) / 255.0
			i += 3
		}
	}
	return tensor
}

func (c *Classifier) invoke(ctx context.Context, tensor []float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.model.SetInput(tensor); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInput, err)
	}
	if err := c.model.Invoke(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInput, err)
	}
	probs, err := c.model.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelInput, err)
	}
	return probs, nil
}
