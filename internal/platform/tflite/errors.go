package tflite

import "errors"

// Sentinel kinds for model loading and inference errors.
var (
	ErrModelFile  = errors.New("model file unusable")
	ErrModelShape = errors.New("model shape mismatch")
	ErrInvoke     = errors.New("model invocation failed")
)
