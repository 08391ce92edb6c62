package rules

import "errors"

// Sentinel kinds for rule evaluation errors.
var (
	// ErrPixelAnalysis marks a failed visual heuristic. Callers keep the
	// original classification and record the reason; the failure never
	// propagates past the rule boundary.
	ErrPixelAnalysis = errors.New("pixel analysis failed")
)
