package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if ECOPROOF_CONFIG is set
//  3. env (prefix ECOPROOF_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ECOPROOF_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ECOPROOF_ADDR, ECOPROOF_QUEUE_SIZE, ...
	// Map env keys like ECOPROOF_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ECOPROOF_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "ecoproof_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot start with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LabelPath == "":
		return fmt.Errorf("%w: label_path must not be empty", ErrInvalidConfig)
	case c.InputWidth <= 0 || c.InputHeight <= 0:
		return fmt.Errorf("%w: input shape must be positive", ErrInvalidConfig)
	case c.HashSize <= 0:
		return fmt.Errorf("%w: hash_size must be positive", ErrInvalidConfig)
	case c.MaxDistanceMeters <= 0:
		return fmt.Errorf("%w: max_distance_m must be positive", ErrInvalidConfig)
	case c.ConfidenceWeight+c.LocationWeight+c.FraudWeight <= 0:
		return fmt.Errorf("%w: fusion weights must sum to a positive value", ErrInvalidConfig)
	case c.EditedFraudScore < 0 || c.EditedFraudScore > 1:
		return fmt.Errorf("%w: edited_fraud_score must be in [0,1]", ErrInvalidConfig)
	case !validMonthDay(c.SeasonStartMonth, c.SeasonStartDay) || !validMonthDay(c.SeasonEndMonth, c.SeasonEndDay):
		return fmt.Errorf("%w: season window is not a valid month/day pair", ErrInvalidConfig)
	}
	return nil
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}
