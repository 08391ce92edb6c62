package classify

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Default static model configuration constants.
const (
	defaultInputWidth  = 224
	defaultInputHeight = 224
	defaultRandomSeed  = 42
)

// StaticOption applies a configuration option to the StaticModel.
type StaticOption func(*StaticModel)

// WithOutputs fixes the probability vector the model returns.
func WithOutputs(outputs []float32) StaticOption {
	return func(m *StaticModel) {
		if len(outputs) > 0 {
			m.outputs = make([]float32, len(outputs))
			copy(m.outputs, outputs)
		}
	}
}

// WithInputShape sets the model's fixed input shape.
func WithInputShape(height, width int) StaticOption {
	return func(m *StaticModel) {
		if height > 0 && width > 0 {
			m.height = height
			m.width = width
		}
	}
}

// WithLatencyRange sets the simulated inference latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) StaticOption {
	return func(m *StaticModel) {
		if minLatency > 0 && maxLatency > minLatency {
			m.minLatency = minLatency
			m.maxLatency = maxLatency
		}
	}
}

// StaticModel implements Model with a fixed output vector. It stands in
// for the TFLite handle in tests and stub mode, optionally simulating
// the latency of real inference.
type StaticModel struct {
	mu      sync.Mutex
	height  int
	width   int
	outputs []float32
	input   []float32

	// Simulated latency range; zero means no delay.
	minLatency time.Duration
	maxLatency time.Duration
	rng        *rand.Rand
}

// NewStaticModel creates a static model with configuration options.
// The default output vector is uniform across the five classes.
func NewStaticModel(opts ...StaticOption) *StaticModel {
	m := &StaticModel{
		height:  defaultInputHeight,
		width:   defaultInputWidth,
		outputs: []float32{0.2, 0.2, 0.2, 0.2, 0.2},
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible latency
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InputWidth returns the fixed input width.
func (m *StaticModel) InputWidth() int { return m.width }

// InputHeight returns the fixed input height.
func (m *StaticModel) InputHeight() int { return m.height }

// SetInput stores the tensor after a length check.
func (m *StaticModel) SetInput(data []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := m.height * m.width * 3
	if len(data) != want {
		return fmt.Errorf("input length %d, model expects %d", len(data), want)
	}
	m.input = data
	return nil
}

// Invoke simulates a forward pass, honoring ctx for cancellation.
func (m *StaticModel) Invoke(ctx context.Context) error {
	m.mu.Lock()
	hasInput := m.input != nil
	latency := time.Duration(0)
	if m.maxLatency > m.minLatency {
		latency = m.minLatency + time.Duration(m.rng.Int63n(int64(m.maxLatency-m.minLatency)))
	}
	m.mu.Unlock()

	if !hasInput {
		return fmt.Errorf("invoke before set input")
	}
	if latency == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
		return nil
	}
}

// Output returns a copy of the configured probability vector.
func (m *StaticModel) Output() ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]float32, len(m.outputs))
	copy(out, m.outputs)
	return out, nil
}

// Close releases nothing; the static model holds no native resources.
func (m *StaticModel) Close() error { return nil }
