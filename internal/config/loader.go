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
//  1. defaults (New())
//  2. file (YAML) if OFFSUIT_CONFIG is set
//  3. env (prefix OFFSUIT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("OFFSUIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: OFFSUIT_ADDR, OFFSUIT_MIN_ROUNDS_REQUIRED, ...
	// Map env keys like OFFSUIT_MIN_ROUNDS_REQUIRED -> min_rounds_required
	// (flat keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("OFFSUIT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "offsuit_")
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engines cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MinRoundsRequired < 0 {
		return fmt.Errorf("%w: min_rounds_required must not be negative", ErrInvalidConfig)
	}
	if c.ITMPercent <= 0 || c.ITMPercent > 100 {
		return fmt.Errorf("%w: itm_percent must be in (0, 100]", ErrInvalidConfig)
	}
	if c.ROIPayoutPercent <= 0 || c.ROIPayoutPercent > 1 {
		return fmt.Errorf("%w: roi_payout_percent must be in (0, 1]", ErrInvalidConfig)
	}
	if c.NameSimilarityThreshold < 0 || c.NameSimilarityThreshold > 100 {
		return fmt.Errorf("%w: name_similarity_threshold must be in [0, 100]", ErrInvalidConfig)
	}
	if c.Skill.Sigma <= 0 || c.Skill.Beta <= 0 {
		return fmt.Errorf("%w: skill sigma and beta must be positive", ErrInvalidConfig)
	}
	if c.Skill.DrawProbability < 0 || c.Skill.DrawProbability >= 1 {
		return fmt.Errorf("%w: skill draw_probability must be in [0, 1)", ErrInvalidConfig)
	}
	for _, b := range c.Bars {
		if b.PokerNight < 0 || b.PokerNight > 6 {
			return fmt.Errorf("%w: bar %q poker_night must be in [0, 6]", ErrInvalidConfig, b.BarName)
		}
	}
	return nil
}
