// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/mealspin/internal/domain/model"
)

// Query defaults for list endpoints.
const (
	defaultDiverseCount      = 3
	defaultPersonalizedLimit = 10
)

// SuggestionsHandler serves the GET /suggestions family.
type SuggestionsHandler struct {
	deps                 Suggester
	maxPersonalizedLimit int
	maxDiverseCount      int
}

// NewSuggestionsHandler creates a new suggestions handler.
func NewSuggestionsHandler(deps Suggester, maxPersonalizedLimit, maxDiverseCount int) *SuggestionsHandler {
	return &SuggestionsHandler{
		deps:                 deps,
		maxPersonalizedLimit: maxPersonalizedLimit,
		maxDiverseCount:      maxDiverseCount,
	}
}

// HandleSuggestion handles GET /suggestions requests.
func (h *SuggestionsHandler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_suggestion"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	opts, err := readOptions(op, r.URL.Query(), h.deps.DefaultOptions())
	if err != nil {
		writeFailure(w, err)
		return
	}
	s, err := h.deps.PickSuggestion(r.Context(), user, opts)
	writeSuggestion(w, op, s, err)
}

// HandleMeal handles GET /suggestions/meal requests.
func (h *SuggestionsHandler) HandleMeal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_meal"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	pick, err := readPick(op, r.URL.Query(), h.deps.DefaultOptions())
	if err != nil {
		writeFailure(w, err)
		return
	}
	filters, err := readMealFilters(op, r.URL.Query(), "")
	if err != nil {
		writeFailure(w, err)
		return
	}
	item, err := h.deps.PickRandomMeal(r.Context(), user, pick.ExcludeRecentDays, pick.WeightFavorites, filters)
	writeItem(w, op, item, err)
}

// HandleRestaurant handles GET /suggestions/restaurant requests.
func (h *SuggestionsHandler) HandleRestaurant(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_restaurant"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	pick, err := readPick(op, r.URL.Query(), h.deps.DefaultOptions())
	if err != nil {
		writeFailure(w, err)
		return
	}
	filters, err := readRestaurantFilters(op, r.URL.Query(), "")
	if err != nil {
		writeFailure(w, err)
		return
	}
	item, err := h.deps.PickRandomRestaurant(r.Context(), user, pick.ExcludeRecentDays, pick.WeightFavorites, filters)
	writeItem(w, op, item, err)
}

// HandleMultiple handles GET /suggestions/multiple requests.
func (h *SuggestionsHandler) HandleMultiple(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_multiple"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	opts, err := readOptions(op, r.URL.Query(), h.deps.DefaultOptions())
	if err != nil {
		writeFailure(w, err)
		return
	}
	batch, err := h.deps.PickMultipleSuggestions(r.Context(), user, opts)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if len(batch) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse[model.Suggestion]{Suggestions: batch})
}

// HandleTimeBased handles GET /suggestions/time requests.
func (h *SuggestionsHandler) HandleTimeBased(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_time_based"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	s, err := h.deps.PickTimeBasedSuggestion(r.Context(), user)
	writeSuggestion(w, op, s, err)
}

// HandleDiverse handles GET /suggestions/diverse?count=N requests. Slots
// that produced nothing are returned as null.
func (h *SuggestionsHandler) HandleDiverse(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_diverse"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	count, err := readCount(op, r.URL.Query(), defaultDiverseCount, h.maxDiverseCount)
	if err != nil {
		writeFailure(w, err)
		return
	}
	batch, err := h.deps.PickDiverseSuggestions(r.Context(), user, count)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse[*model.Suggestion]{Suggestions: batch})
}

// HandlePersonalized handles GET /suggestions/personalized?limit=N requests.
func (h *SuggestionsHandler) HandlePersonalized(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_personalized"
	user, ok := h.begin(op, w, r)
	if !ok {
		return
	}
	limit, err := readLimit(op, r.URL.Query(), defaultPersonalizedLimit, h.maxPersonalizedLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.GetPersonalizedSuggestions(r.Context(), user, limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// begin rejects non-GET methods and requests without a user.
func (h *SuggestionsHandler) begin(op string, w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return "", false
	}
	user, err := userID(op, r)
	if err != nil {
		writeFailure(w, err)
		return "", false
	}
	return user, true
}

type suggestionsResponse[T any] struct {
	Suggestions []T `json:"suggestions"`
}

func writeSuggestion(w http.ResponseWriter, op string, s *model.Suggestion, err error) {
	switch {
	case err != nil:
		writeFailure(w, Wrap(op, err))
	case s == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, s)
	}
}

func writeItem(w http.ResponseWriter, op string, item *model.Item, err error) {
	switch {
	case err != nil:
		writeFailure(w, Wrap(op, err))
	case item == nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, item)
	}
}
