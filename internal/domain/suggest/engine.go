// Package suggest picks the next meal or restaurant to suggest to a user.
//
// The engine keeps no state between calls. Every operation re-reads the
// catalog, the selection history and the user's preferences, then narrows the
// candidates and hands them to the weighted sampler.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mealspin/internal/domain/availability"
	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/sampling"
	"github.com/okian/mealspin/pkg/logger"
	"github.com/okian/mealspin/pkg/metrics"
)

// Operation names used for metrics and logs.
const (
	opRandomMeal       = "random_meal"
	opRandomRestaurant = "random_restaurant"
	opSuggestion       = "suggestion"
	opMultiple         = "multiple"
	opTimeBased        = "time_based"
	opDiverse          = "diverse"
	opPersonalized     = "personalized"
	opInsights         = "insights"
	opRecord           = "record_selection"
)

// Fallback stages reported when a pick succeeds.
const (
	stageOpenEligible = "open_eligible"
	stageEligible     = "eligible"
	stageOpenAll      = "open_all"
	stageAll          = "all"
)

// Collaborator labels.
const (
	collabHistory     = "history"
	collabCatalog     = "catalog"
	collabPreferences = "preferences"
)

const coinFlipMeal = 0.5

// Engine orchestrates candidate retrieval, fallback and sampling.
type Engine struct {
	catalog Catalog
	history History
	prefs   PreferenceSource

	rng     sampling.Rand
	sampler *sampling.Sampler
	now     func() time.Time
	loc     *time.Location
	newID   func() string
	log     logger.Logger

	candidateLimit     int
	defaultExcludeDays int
}

// New builds an engine over the given collaborators.
func New(catalog Catalog, history History, prefs PreferenceSource, opts ...Option) *Engine {
	e := &Engine{
		catalog:            catalog,
		history:            history,
		prefs:              prefs,
		now:                time.Now,
		loc:                time.Local,
		newID:              uuid.NewString,
		log:                logger.Nop(),
		candidateLimit:     DefaultCandidateLimit,
		defaultExcludeDays: DefaultExcludeRecentDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = sampling.NewLockedRand(0)
	}
	e.sampler = sampling.New(e.rng)
	return e
}

// DefaultOptions returns the request options used when a caller sets none:
// the engine's default recency window with favorites weighted.
func (e *Engine) DefaultOptions() Options {
	return Options{ExcludeRecentDays: e.defaultExcludeDays, WeightFavorites: true}
}

// PickRandomMeal picks one meal matching filters, avoiding meals selected in
// the last excludeRecentDays days when possible. It returns nil when no meal
// matches filters at all.
func (e *Engine) PickRandomMeal(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error) {
	defer e.observe(opRandomMeal, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	candidates, recent, err := e.candidates(ctx, userID, model.ItemTypeMeal, excludeRecentDays, filters)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.RecordSuggestionEmpty(opRandomMeal)
		return nil, nil
	}

	pool, stage := withoutRecent(candidates, recent), stageEligible
	if len(pool) == 0 {
		pool, stage = candidates, stageAll
	}
	item := e.sampler.Sample(pool, weightFavorites)
	e.picked(ctx, opRandomMeal, model.ItemTypeMeal, item, stage, len(candidates))
	return &item, nil
}

// PickRandomRestaurant picks one restaurant matching filters. Constraints
// relax in order: recency first, then opening hours. It returns nil only when
// no restaurant matches filters.
func (e *Engine) PickRandomRestaurant(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error) {
	defer e.observe(opRandomRestaurant, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	candidates, recent, err := e.candidates(ctx, userID, model.ItemTypeRestaurant, excludeRecentDays, filters)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.RecordSuggestionEmpty(opRandomRestaurant)
		return nil, nil
	}

	today := e.now().In(e.loc).Weekday()
	eligible := withoutRecent(candidates, recent)

	var pool []model.Item
	var stage string
	if open := availability.OpenOn(eligible, today); len(open) > 0 {
		pool, stage = open, stageOpenEligible
	} else if len(eligible) > 0 {
		pool, stage = eligible, stageEligible
	} else if open := availability.OpenOn(candidates, today); len(open) > 0 {
		pool, stage = open, stageOpenAll
	} else {
		pool, stage = candidates, stageAll
	}

	item := e.sampler.Sample(pool, weightFavorites)
	e.picked(ctx, opRandomRestaurant, model.ItemTypeRestaurant, item, stage, len(candidates))
	return &item, nil
}

// PickSuggestion picks a meal or a restaurant according to the user's
// preferred suggestion type, flipping a fair coin when there is none.
func (e *Engine) PickSuggestion(ctx context.Context, userID string, opts Options) (*model.Suggestion, error) {
	defer e.observe(opSuggestion, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	kind := prefs.SuggestionType()
	if kind == model.PreferRandom {
		kind = model.PreferRestaurant
		if e.rng.Float64() < coinFlipMeal {
			kind = model.PreferMeal
		}
	}

	if kind == model.PreferMeal {
		return e.mealSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, opts.MealFilters)
	}
	return e.restaurantSuggestion(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, opts.RestaurantFilters)
}

// PickMultipleSuggestions returns up to the user's meal count of independent
// meal picks followed by one restaurant pick. Empty picks are omitted, and
// the same meal may appear more than once.
func (e *Engine) PickMultipleSuggestions(ctx context.Context, userID string, opts Options) ([]model.Suggestion, error) {
	defer e.observe(opMultiple, time.Now())
	if err := validateUser(userID); err != nil {
		return nil, err
	}

	prefs, err := e.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	mealCount := prefs.MealCount()
	out := make([]model.Suggestion, 0, mealCount+1)
	for i := 0; i < mealCount; i++ {
		meal, err := e.PickRandomMeal(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, opts.MealFilters)
		if err != nil {
			return nil, err
		}
		if meal != nil {
			out = append(out, model.MealSuggestion(*meal))
		}
	}

	restaurant, err := e.PickRandomRestaurant(ctx, userID, opts.ExcludeRecentDays, opts.WeightFavorites, opts.RestaurantFilters)
	if err != nil {
		return nil, err
	}
	if restaurant != nil {
		out = append(out, model.RestaurantSuggestion(*restaurant))
	}
	return out, nil
}

// RecordSelection appends one pick to the user's history. Write failures are
// returned; nothing is retried or deduplicated here.
func (e *Engine) RecordSelection(ctx context.Context, userID string, itemType model.ItemType, itemID string) (model.SelectionRecord, error) {
	defer e.observe(opRecord, time.Now())
	if err := validateUser(userID); err != nil {
		return model.SelectionRecord{}, err
	}
	if !itemType.Valid() {
		return model.SelectionRecord{}, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	if strings.TrimSpace(itemID) == "" {
		return model.SelectionRecord{}, ErrInvalidItemID
	}

	rec := model.SelectionRecord{
		ID:         e.newID(),
		UserID:     userID,
		ItemType:   itemType,
		ItemID:     itemID,
		SelectedAt: e.now().UTC(),
	}
	if err := e.history.AppendSelection(ctx, rec); err != nil {
		metrics.RecordSelectionError()
		e.log.Error(ctx, "failed to record selection",
			logger.String("user_id", userID),
			logger.String("item_type", itemType.String()),
			logger.String("item_id", itemID),
			logger.Error(err))
		return model.SelectionRecord{}, fmt.Errorf("append selection: %w", err)
	}

	metrics.RecordSelection(itemType.String())
	e.log.Debug(ctx, "selection recorded",
		logger.String("user_id", userID),
		logger.String("item_type", itemType.String()),
		logger.String("item_id", itemID))
	return rec, nil
}

func (e *Engine) mealSuggestion(ctx context.Context, userID string, days int, weight bool, filters model.Filters) (*model.Suggestion, error) {
	meal, err := e.PickRandomMeal(ctx, userID, days, weight, filters)
	if err != nil || meal == nil {
		return nil, err
	}
	s := model.MealSuggestion(*meal)
	return &s, nil
}

func (e *Engine) restaurantSuggestion(ctx context.Context, userID string, days int, weight bool, filters model.Filters) (*model.Suggestion, error) {
	restaurant, err := e.PickRandomRestaurant(ctx, userID, days, weight, filters)
	if err != nil || restaurant == nil {
		return nil, err
	}
	s := model.RestaurantSuggestion(*restaurant)
	return &s, nil
}

// candidates fetches the recency set and the filtered catalog for one item type.
func (e *Engine) candidates(ctx context.Context, userID string, itemType model.ItemType, days int, filters model.Filters) ([]model.Item, map[string]struct{}, error) {
	var recent map[string]struct{}
	if days > 0 {
		ids, err := e.history.RecentItemIDs(ctx, userID, itemType, days)
		if err != nil {
			return nil, nil, e.collaboratorError(ctx, collabHistory, fmt.Errorf("recent %s ids: %w", itemType, err))
		}
		recent = ids
	}

	items, err := e.catalog.QueryItems(ctx, userID, itemType, filters, e.candidateLimit)
	if err != nil {
		return nil, nil, e.collaboratorError(ctx, collabCatalog, fmt.Errorf("query %s candidates: %w", itemType, err))
	}
	return items, recent, nil
}

func (e *Engine) preferences(ctx context.Context, userID string) (model.Preferences, error) {
	prefs, err := e.prefs.Preferences(ctx, userID)
	if err != nil {
		return model.Preferences{}, e.collaboratorError(ctx, collabPreferences, fmt.Errorf("load preferences: %w", err))
	}
	return prefs, nil
}

func (e *Engine) collaboratorError(ctx context.Context, collaborator string, err error) error {
	metrics.RecordCollaboratorError(collaborator)
	e.log.Warn(ctx, "collaborator call failed",
		logger.String("collaborator", collaborator),
		logger.Error(err))
	return err
}

func (e *Engine) picked(ctx context.Context, op string, itemType model.ItemType, item model.Item, stage string, candidates int) {
	metrics.RecordSuggestionServed(op, itemType.String())
	metrics.RecordFallbackStage(itemType.String(), stage)
	e.log.Debug(ctx, "item picked",
		logger.String("operation", op),
		logger.String("item_id", item.ID),
		logger.String("stage", stage),
		logger.Int("candidates", candidates))
}

func (e *Engine) observe(op string, start time.Time) {
	metrics.RecordEngineLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func withoutRecent(items []model.Item, recent map[string]struct{}) []model.Item {
	if len(recent) == 0 {
		return items
	}
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if _, ok := recent[item.ID]; !ok {
			out = append(out, item)
		}
	}
	return out
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidUser
	}
	return nil
}
