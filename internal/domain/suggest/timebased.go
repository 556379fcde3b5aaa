package suggest

import (
	"context"
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/pkg/logger"
)

// Time-of-day buckets, as [start, end) local hours.
const (
	breakfastStart = 6
	breakfastEnd   = 10
	lunchStart     = 11
	lunchEnd       = 14
	dinnerStart    = 17
	dinnerEnd      = 21
)

// Bucket rules.
const (
	breakfastMaxPrep     = 30
	lunchMaxPrep         = 45
	lunchRestaurantOdds  = 0.7
	dinnerRestaurantOdds = 0.4
)

// PickTimeBasedSuggestion picks according to the local hour: quick easy meals
// in the morning, mostly restaurants at lunch, some restaurants at dinner,
// and the regular preference-driven pick otherwise.
func (e *Engine) PickTimeBasedSuggestion(ctx context.Context, userID string) (*model.Suggestion, error) {
	defer e.observe(opTimeBased, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	// Time-based picks always use the fixed window, not the configured default.
	opts := DefaultOptions()
	hour := e.now().In(e.loc).Hour()
	e.log.Debug(ctx, "time based suggestion", logger.String("user_id", userID), logger.Int("hour", hour))

	switch {
	case hour >= breakfastStart && hour < breakfastEnd:
		filters := model.Filters{DifficultyLevel: model.DifficultyEasy, MaxPrepTime: breakfastMaxPrep}
		return e.mealSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, filters)

	case hour >= lunchStart && hour < lunchEnd:
		if e.rng.Float64() < lunchRestaurantOdds {
			return e.restaurantSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, model.Filters{})
		}
		filters := model.Filters{MaxPrepTime: lunchMaxPrep}
		return e.mealSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, filters)

	case hour >= dinnerStart && hour < dinnerEnd:
		if e.rng.Float64() < dinnerRestaurantOdds {
			return e.restaurantSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, model.Filters{})
		}
		return e.mealSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, model.Filters{})

	default:
		return e.PickSuggestion(ctx, userID, opts)
	}
}
