package imagex

import "errors"

// Sentinel kinds for image decode errors.
var (
	ErrDecode = errors.New("image decode failed")
)
