// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory verification job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of verification workers.
	WorkerCount int `koanf:"worker_count"`

	// ModelPath points at the TFLite model file. Empty selects the
	// built-in static model (demo/test mode).
	ModelPath string `koanf:"model_path"`

	// LabelPath points at the label map file (exactly 5 entries).
	LabelPath string `koanf:"label_path"`

	// InputWidth and InputHeight give the model's fixed input shape.
	InputWidth  int `koanf:"input_width"`
	InputHeight int `koanf:"input_height"`

	// MinConfidence is the classifier confidence bar used by the
	// recycling rule.
	MinConfidence float64 `koanf:"min_confidence"`

	// PinkRatioThreshold is the blossom rule's pink-pixel ratio bar.
	PinkRatioThreshold float64 `koanf:"pink_ratio_threshold"`

	// Cherry blossom season window (month/day, year-agnostic).
	SeasonStartMonth int `koanf:"season_start_month"`
	SeasonStartDay   int `koanf:"season_start_day"`
	SeasonEndMonth   int `koanf:"season_end_month"`
	SeasonEndDay     int `koanf:"season_end_day"`

	// MaxDistanceMeters is the radius inside which location score is 1.0.
	MaxDistanceMeters float64 `koanf:"max_distance_m"`

	// LocationMinScore gates IsVerified on the location signal.
	LocationMinScore float64 `koanf:"location_min_score"`

	// TimestampMaxAgeSec bounds how old a claimed timestamp may be.
	TimestampMaxAgeSec int64 `koanf:"timestamp_max_age_s"`

	// HashSize is the perceptual hash edge length in pixels.
	HashSize int `koanf:"hash_size"`

	// EdgeVarianceThreshold flags an image as edited above this value.
	EdgeVarianceThreshold float64 `koanf:"edge_variance_threshold"`

	// EditedFraudScore is assigned to edited-but-not-duplicate images.
	EditedFraudScore float64 `koanf:"edited_fraud_score"`

	// FraudMaxScore gates IsVerified on the fraud signal.
	FraudMaxScore float64 `koanf:"fraud_max_score"`

	// Fusion weights; renormalized at wiring time.
	ConfidenceWeight float64 `koanf:"confidence_weight"`
	LocationWeight   float64 `koanf:"location_weight"`
	FraudWeight      float64 `koanf:"fraud_weight"`

	// RedisAddr selects the Redis-backed seen-hash store when set;
	// empty keeps the in-memory store.
	RedisAddr string `koanf:"redis_addr"`

	// MaxImageBytes rejects oversized submissions.
	MaxImageBytes int64 `koanf:"max_image_bytes"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU() * 2,
		ModelPath:             "",
		LabelPath:             "models/label_map.txt",
		InputWidth:            224,
		InputHeight:           224,
		MinConfidence:         0.7,
		PinkRatioThreshold:    0.08,
		SeasonStartMonth:      3,
		SeasonStartDay:        20,
		SeasonEndMonth:        4,
		SeasonEndDay:          15,
		MaxDistanceMeters:     100,
		LocationMinScore:      0.7,
		TimestampMaxAgeSec:    86_400,
		HashSize:              16,
		EdgeVarianceThreshold: 500,
		EditedFraudScore:      0.5,
		FraudMaxScore:         0.5,
		ConfidenceWeight:      0.4,
		LocationWeight:        0.3,
		FraudWeight:           0.3,
		RedisAddr:             "",
		MaxImageBytes:         5 * 1024 * 1024,
	}
	return c
}
