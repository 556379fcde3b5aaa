package suggest

import (
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/sampling"
	"github.com/okian/mealspin/pkg/logger"
)

// Engine defaults.
const (
	DefaultCandidateLimit    = 1000
	DefaultExcludeRecentDays = 7
	DefaultInsightsLimit     = 5
)

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the randomness source used for sampling and coin flips.
func WithRand(rng sampling.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the time zone used for time-of-day buckets and the
// "open today" weekday.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithCandidateLimit caps how many catalog items a single pick considers.
func WithCandidateLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.candidateLimit = n
		}
	}
}

// WithDefaultExcludeDays sets the recency window used by DefaultOptions-based
// calls made inside the engine.
func WithDefaultExcludeDays(days int) Option {
	return func(e *Engine) {
		if days >= 0 {
			e.defaultExcludeDays = days
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIDGenerator overrides how selection record ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// Options tunes a single suggestion request.
type Options struct {
	ExcludeRecentDays int           `json:"exclude_recent_days"`
	WeightFavorites   bool          `json:"weight_favorites"`
	MealFilters       model.Filters `json:"meal_filters"`
	RestaurantFilters model.Filters `json:"restaurant_filters"`
}

// DefaultOptions excludes the last seven days and weights favorites.
func DefaultOptions() Options {
	return Options{
		ExcludeRecentDays: DefaultExcludeRecentDays,
		WeightFavorites:   true,
	}
}
