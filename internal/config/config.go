// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and MEALSPIN_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/mealspin/internal/validation"
	"github.com/okian/mealspin/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"required"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Store selects the collaborator backend: memory or postgres.
	Store string `koanf:"store" validate:"oneof=memory postgres"`

	// DatabaseURL is the lib/pq connection string used by the postgres store.
	DatabaseURL string `koanf:"database_url" validate:"required_if=Store postgres"`

	// CatalogFile optionally seeds the memory store from YAML.
	CatalogFile string `koanf:"catalog_file"`

	// RandSeed seeds the suggestion RNG; 0 seeds from the clock.
	RandSeed int64 `koanf:"rand_seed"`

	// Timezone is the IANA zone used for time-of-day buckets and "open today".
	Timezone string `koanf:"timezone" validate:"required,timezone"`

	// CandidateLimit caps catalog items considered per pick.
	CandidateLimit int `koanf:"candidate_limit" validate:"min=1,max=100000"`

	// DefaultExcludeDays is the recency window applied when a request sets none.
	DefaultExcludeDays int `koanf:"default_exclude_days" validate:"min=0,max=365"`

	// MaxPersonalizedLimit caps GET /suggestions/personalized?limit.
	MaxPersonalizedLimit int `koanf:"max_personalized_limit" validate:"min=1"`

	// MaxDiverseCount caps GET /suggestions/diverse?count.
	MaxDiverseCount int `koanf:"max_diverse_count" validate:"min=1"`

	// IdempotencyCacheSize bounds remembered POST /selections request ids.
	IdempotencyCacheSize int `koanf:"idempotency_cache_size" validate:"min=0"`

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		Store:                "memory",
		Timezone:             "UTC",
		CandidateLimit:       1000,
		DefaultExcludeDays:   7,
		MaxPersonalizedLimit: 50,
		MaxDiverseCount:      10,
		IdempotencyCacheSize: 10_000,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}
