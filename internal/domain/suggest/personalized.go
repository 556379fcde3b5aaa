package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/pkg/logger"
)

// Personalized is a preference-filtered listing of a user's newest items.
type Personalized struct {
	Meals       []model.Item `json:"meals"`
	Restaurants []model.Item `json:"restaurants"`
}

// Insights summarizes a user's selection history.
type Insights struct {
	TopMeals         []model.SelectionCount  `json:"top_meals"`
	TopRestaurants   []model.SelectionCount  `json:"top_restaurants"`
	RecentSelections []model.SelectionRecord `json:"recent_selections"`
	// FavoriteCuisine is the cuisine with the most selections among the top
	// items, empty when history holds no item with a cuisine.
	FavoriteCuisine string `json:"favorite_cuisine,omitempty"`
}

// GetPersonalizedSuggestions lists up to limit of the user's newest meals and
// restaurants that match the filters implied by their preferences. No
// sampling is involved.
func (e *Engine) GetPersonalizedSuggestions(ctx context.Context, userID string, limit int) (Personalized, error) {
	defer e.observe(opPersonalized, time.Now())
	if err := validateUser(userID); err != nil {
		return Personalized{}, err
	}
	if limit < 1 {
		return Personalized{}, fmt.Errorf("%w: %d", ErrInvalidCount, limit)
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return Personalized{}, err
	}

	mealFilters := prefs.MealFilters()
	mealFilters.Sort = model.SortNewest
	restaurantFilters := prefs.RestaurantFilters()
	restaurantFilters.Sort = model.SortNewest

	var out Personalized
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.catalog.QueryItems(gctx, userID, model.ItemTypeMeal, mealFilters, limit)
		if err != nil {
			return e.collaboratorError(gctx, collabCatalog, fmt.Errorf("query personalized meals: %w", err))
		}
		out.Meals = items
		return nil
	})
	g.Go(func() error {
		items, err := e.catalog.QueryItems(gctx, userID, model.ItemTypeRestaurant, restaurantFilters, limit)
		if err != nil {
			return e.collaboratorError(gctx, collabCatalog, fmt.Errorf("query personalized restaurants: %w", err))
		}
		out.Restaurants = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Personalized{}, err
	}

	out.Meals = capItems(out.Meals, limit)
	out.Restaurants = capItems(out.Restaurants, limit)
	e.log.Debug(ctx, "personalized suggestions listed",
		logger.String("user_id", userID),
		logger.Int("meals", len(out.Meals)),
		logger.Int("restaurants", len(out.Restaurants)))
	return out, nil
}

// SelectionInsights reports the user's most picked meals and restaurants,
// their latest picks and the cuisine they pick most.
func (e *Engine) SelectionInsights(ctx context.Context, userID string, limit int) (Insights, error) {
	defer e.observe(opInsights, time.Now())
	if err := validateUser(userID); err != nil {
		return Insights{}, err
	}
	if limit < 1 {
		return Insights{}, fmt.Errorf("%w: %d", ErrInvalidCount, limit)
	}

	var (
		out         Insights
		meals       []model.Item
		restaurants []model.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := e.history.MostSelected(gctx, userID, model.ItemTypeMeal, limit)
		if err != nil {
			return e.collaboratorError(gctx, collabHistory, fmt.Errorf("most selected meals: %w", err))
		}
		out.TopMeals = counts
		return nil
	})
	g.Go(func() error {
		counts, err := e.history.MostSelected(gctx, userID, model.ItemTypeRestaurant, limit)
		if err != nil {
			return e.collaboratorError(gctx, collabHistory, fmt.Errorf("most selected restaurants: %w", err))
		}
		out.TopRestaurants = counts
		return nil
	})
	g.Go(func() error {
		recs, err := e.history.RecentSelections(gctx, userID, limit)
		if err != nil {
			return e.collaboratorError(gctx, collabHistory, fmt.Errorf("recent selections: %w", err))
		}
		out.RecentSelections = recs
		return nil
	})
	g.Go(func() error {
		items, err := e.catalog.QueryItems(gctx, userID, model.ItemTypeMeal, model.Filters{}, e.candidateLimit)
		if err != nil {
			return e.collaboratorError(gctx, collabCatalog, fmt.Errorf("query meals: %w", err))
		}
		meals = items
		return nil
	})
	g.Go(func() error {
		items, err := e.catalog.QueryItems(gctx, userID, model.ItemTypeRestaurant, model.Filters{}, e.candidateLimit)
		if err != nil {
			return e.collaboratorError(gctx, collabCatalog, fmt.Errorf("query restaurants: %w", err))
		}
		restaurants = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Insights{}, err
	}

	cuisines := make(map[string]string, len(meals)+len(restaurants))
	for _, item := range meals {
		cuisines[string(model.ItemTypeMeal)+":"+item.ID] = item.Cuisine
	}
	for _, item := range restaurants {
		cuisines[string(model.ItemTypeRestaurant)+":"+item.ID] = item.Cuisine
	}
	out.FavoriteCuisine = favoriteCuisine(cuisines, out.TopMeals, out.TopRestaurants)
	return out, nil
}

func favoriteCuisine(cuisines map[string]string, counts ...[]model.SelectionCount) string {
	tally := make(map[string]int)
	display := make(map[string]string)
	for _, group := range counts {
		for _, c := range group {
			name := strings.TrimSpace(cuisines[string(c.ItemType)+":"+c.ItemID])
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			tally[key] += c.Count
			if _, ok := display[key]; !ok {
				display[key] = name
			}
		}
	}

	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if tally[keys[i]] != tally[keys[j]] {
			return tally[keys[i]] > tally[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) == 0 {
		return ""
	}
	return display[keys[0]]
}

func capItems(items []model.Item, limit int) []model.Item {
	if len(items) > limit {
		return items[:limit]
	}
	if items == nil {
		return []model.Item{}
	}
	return items
}
