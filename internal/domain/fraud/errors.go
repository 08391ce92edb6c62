package fraud

import "errors"

// Sentinel kinds for fraud analysis errors.
var (
	// ErrAnalysis marks a processing failure; the caller receives the
	// conservative result alongside it.
	ErrAnalysis = errors.New("fraud analysis failed")

	// ErrStore marks a seen-hash store failure.
	ErrStore = errors.New("hash store failed")
)
