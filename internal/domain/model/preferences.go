package model

// SuggestionPreference is the user's preferred kind of suggestion.
type SuggestionPreference string

// Suggestion preferences.
const (
	PreferMeal       SuggestionPreference = "meal"
	PreferRestaurant SuggestionPreference = "restaurant"
	PreferRandom     SuggestionPreference = "random"
)

// Meal count bounds for multi-suggestion batches.
const (
	MinMealSuggestions     = 1
	MaxMealSuggestions     = 3
	DefaultMealSuggestions = 1
)

// Preferences is a sparse, read-only view of a user's settings. A nil field
// means "no preference".
type Preferences struct {
	MealSuggestionCount *int `json:"meal_suggestion_count,omitempty"`
	// SuggestionCount is the older name for MealSuggestionCount and is only
	// consulted when the newer field is unset.
	SuggestionCount *int `json:"suggestion_count,omitempty"`

	PreferredSuggestionType  *SuggestionPreference `json:"preferred_suggestion_type,omitempty"`
	PreferredCuisineType     *string               `json:"preferred_cuisine_type,omitempty"`
	PreferredDifficultyLevel *string               `json:"preferred_difficulty_level,omitempty"`
	PreferredPriceRange      *string               `json:"preferred_price_range,omitempty"`
	MaxPrepTime              *int                  `json:"max_prep_time,omitempty"`
	MinRating                *float64              `json:"min_rating,omitempty"`
}

// MealCount resolves how many meals a multi-suggestion batch should hold:
// MealSuggestionCount, then SuggestionCount, then 1, clamped to [1,3].
func (p Preferences) MealCount() int {
	n := DefaultMealSuggestions
	switch {
	case p.MealSuggestionCount != nil:
		n = *p.MealSuggestionCount
	case p.SuggestionCount != nil:
		n = *p.SuggestionCount
	}
	return clamp(n, MinMealSuggestions, MaxMealSuggestions)
}

// SuggestionType returns the preferred suggestion kind, defaulting to random.
// Unknown stored values are treated as random.
func (p Preferences) SuggestionType() SuggestionPreference {
	if p.PreferredSuggestionType == nil {
		return PreferRandom
	}
	switch *p.PreferredSuggestionType {
	case PreferMeal, PreferRestaurant:
		return *p.PreferredSuggestionType
	default:
		return PreferRandom
	}
}

// MealFilters derives implicit meal filters from preferences.
func (p Preferences) MealFilters() Filters {
	var f Filters
	if p.PreferredCuisineType != nil {
		f.Cuisine = *p.PreferredCuisineType
	}
	if p.PreferredDifficultyLevel != nil {
		f.DifficultyLevel = *p.PreferredDifficultyLevel
	}
	if p.MaxPrepTime != nil && *p.MaxPrepTime > 0 {
		f.MaxPrepTime = *p.MaxPrepTime
	}
	return f
}

// RestaurantFilters derives implicit restaurant filters from preferences.
func (p Preferences) RestaurantFilters() Filters {
	var f Filters
	if p.PreferredCuisineType != nil {
		f.Cuisine = *p.PreferredCuisineType
	}
	if p.PreferredPriceRange != nil {
		f.PriceRange = *p.PreferredPriceRange
	}
	if p.MinRating != nil {
		r := *p.MinRating
		f.MinRating = &r
	}
	return f
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
