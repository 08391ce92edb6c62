// Package tflite wraps a TensorFlow Lite interpreter behind the model
// handle contract the classifier expects: a fixed (1,H,W,3) float32
// input, one forward pass per call, and a flat float32 output vector.
package tflite

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-tflite"
)

// Handle owns one loaded interpreter. It is not safe for concurrent
// invocation; the classifier serializes access.
type Handle struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
	height  int
	width   int
}

// Open loads the model at path and validates its input shape against
// the configured (1, height, width, 3). Any mismatch or missing file is
// a fatal startup error, never a per-request one.
func Open(path string, height, width int) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelFile, path, err)
	}

	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelFile, path)
	}

	options := tflite.NewInterpreterOptions()
	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("%w: interpreter creation failed", ErrModelFile)
	}

	h := &Handle{model: model, options: options, interp: interp, height: height, width: width}
	if err := h.validate(); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Handle) validate() error {
	if status := h.interp.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("%w: tensor allocation failed", ErrModelShape)
	}
	if h.interp.GetInputTensorCount() < 1 || h.interp.GetOutputTensorCount() < 1 {
		return fmt.Errorf("%w: model has no input or output tensors", ErrModelShape)
	}

	in := h.interp.GetInputTensor(0)
	want := [4]int{1, h.height, h.width, 3}
	if in.NumDims() != len(want) {
		return fmt.Errorf("%w: expected input rank 4, got %d", ErrModelShape, in.NumDims())
	}
	for i, dim := range want {
		if in.Dim(i) != dim {
			return fmt.Errorf("%w: expected input shape %v, got dim[%d]=%d", ErrModelShape, want, i, in.Dim(i))
		}
	}
	if in.Type() != tflite.Float32 {
		return fmt.Errorf("%w: expected float32 input tensor", ErrModelShape)
	}
	return nil
}

// InputWidth returns the model's fixed input width.
func (h *Handle) InputWidth() int { return h.width }

// InputHeight returns the model's fixed input height.
func (h *Handle) InputHeight() int { return h.height }

// SetInput copies the flattened NHWC tensor into the input buffer.
func (h *Handle) SetInput(data []float32) error {
	in := h.interp.GetInputTensor(0)
	buf := in.Float32s()
	if len(buf) != len(data) {
		return fmt.Errorf("%w: input length %d, tensor expects %d", ErrModelShape, len(data), len(buf))
	}
	copy(buf, data)
	return nil
}

// Invoke runs a single forward pass.
func (h *Handle) Invoke(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if status := h.interp.Invoke(); status != tflite.OK {
		return fmt.Errorf("%w: invoke returned status %d", ErrInvoke, status)
	}
	return nil
}

// Output returns a copy of the output probability vector.
func (h *Handle) Output() ([]float32, error) {
	out := h.interp.GetOutputTensor(0)
	src := out.Float32s()
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst, nil
}

// Close releases the interpreter and model.
func (h *Handle) Close() error {
	if h.interp != nil {
		h.interp.Delete()
		h.interp = nil
	}
	if h.options != nil {
		h.options.Delete()
		h.options = nil
	}
	if h.model != nil {
		h.model.Delete()
		h.model = nil
	}
	return nil
}
