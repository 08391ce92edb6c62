package classify

import "errors"

// Sentinel kinds for classification errors.
var (
	// ErrImageFormat marks an unsupported or undecodable image encoding.
	ErrImageFormat = errors.New("unsupported image format")

	// ErrModelInput marks a failure to feed or run the model, including
	// degenerate all-zero outputs.
	ErrModelInput = errors.New("model input failed")

	// ErrLabelMap marks a missing or malformed label map at startup.
	ErrLabelMap = errors.New("invalid label map")
)
