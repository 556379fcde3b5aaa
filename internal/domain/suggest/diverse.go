package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/pkg/logger"
	"github.com/okian/mealspin/pkg/metrics"
)

// maxDiversityAttempts is how many extra picks a slot may take to avoid a
// cuisine already used in the batch.
const maxDiversityAttempts = 3

// PickDiverseSuggestions returns count suggestions, re-picking a slot up to
// maxDiversityAttempts times when its cuisine repeats an earlier one. The
// last slot is never retried. Diversity is best effort: when retries run out
// the last attempt is kept. A slot whose pick came back empty holds nil.
func (e *Engine) PickDiverseSuggestions(ctx context.Context, userID string, count int) ([]*model.Suggestion, error) {
	defer e.observe(opDiverse, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	opts := e.DefaultOptions()
	used := make(map[string]struct{}, count)
	out := make([]*model.Suggestion, 0, count)

	for slot := 0; slot < count; slot++ {
		s, err := e.PickSuggestion(ctx, userID, opts)
		if err != nil {
			return nil, err
		}

		if slot < count-1 {
			for attempt := 0; attempt < maxDiversityAttempts && repeatsCuisine(s, used); attempt++ {
				metrics.RecordDiversityRetry()
				if s, err = e.PickSuggestion(ctx, userID, opts); err != nil {
					return nil, err
				}
			}
		}

		if key := cuisineKey(s); key != "" {
			used[key] = struct{}{}
		}
		out = append(out, s)
	}

	e.log.Debug(ctx, "diverse suggestions picked",
		logger.String("user_id", userID),
		logger.Int("count", count),
		logger.Int("distinct_cuisines", len(used)))
	return out, nil
}

func repeatsCuisine(s *model.Suggestion, used map[string]struct{}) bool {
	key := cuisineKey(s)
	if key == "" {
		return false
	}
	_, ok := used[key]
	return ok
}

func cuisineKey(s *model.Suggestion) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s.Cuisine()))
}
