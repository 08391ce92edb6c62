package model

import "errors"

// Sentinel kinds shared across the verification domain.
var (
	ErrValidation = errors.New("invalid verification request")
)
