package model

import "strings"

// SortOrder controls the order catalog queries return items in.
type SortOrder string

// Sort orders.
const (
	SortNone   SortOrder = ""
	SortNewest SortOrder = "newest"
)

// Difficulty levels used by meal filters.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Filters narrows a catalog query. Zero values mean "no constraint".
type Filters struct {
	Cuisine         string    `json:"cuisine,omitempty"`
	DifficultyLevel string    `json:"difficulty_level,omitempty"`
	MaxPrepTime     int       `json:"prep_time_max,omitempty"`
	PriceRange      string    `json:"price_range,omitempty"`
	MinRating       *float64  `json:"min_rating,omitempty"`
	FavoritesOnly   bool      `json:"favorites_only,omitempty"`
	Sort            SortOrder `json:"sort,omitempty"`
}

// Matches reports whether item satisfies every set constraint. Catalog
// adapters that filter in memory use it as the reference predicate.
//
// An item with unknown prep time (0) never matches a MaxPrepTime filter, and
// an unrated item never matches a MinRating filter.
func (f Filters) Matches(item Item) bool {
	if f.Cuisine != "" && !strings.EqualFold(f.Cuisine, item.Cuisine) {
		return false
	}
	if f.DifficultyLevel != "" && !strings.EqualFold(f.DifficultyLevel, item.DifficultyLevel) {
		return false
	}
	if f.MaxPrepTime > 0 && (item.PrepTimeMinutes <= 0 || item.PrepTimeMinutes > f.MaxPrepTime) {
		return false
	}
	if f.PriceRange != "" && f.PriceRange != item.PriceRange {
		return false
	}
	if f.MinRating != nil {
		r, ok := item.RatingValue()
		if !ok || r < *f.MinRating {
			return false
		}
	}
	if f.FavoritesOnly && !item.IsFavorite {
		return false
	}
	return true
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return f.Cuisine == "" && f.DifficultyLevel == "" && f.MaxPrepTime == 0 &&
		f.PriceRange == "" && f.MinRating == nil && !f.FavoritesOnly
}
