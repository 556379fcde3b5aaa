// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemType names the namespace an item id lives in.
type ItemType string

// Item types.
const (
	ItemTypeMeal       ItemType = "meal"
	ItemTypeRestaurant ItemType = "restaurant"
)

// Rating bounds for restaurants.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// ParseItemType validates and normalizes an item type name.
func ParseItemType(s string) (ItemType, error) {
	switch ItemType(strings.ToLower(strings.TrimSpace(s))) {
	case ItemTypeMeal:
		return ItemTypeMeal, nil
	case ItemTypeRestaurant:
		return ItemTypeRestaurant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidItemType, s)
	}
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeMeal || t == ItemTypeRestaurant
}

func (t ItemType) String() string { return string(t) }

// Item is the suggestable projection of a meal or a restaurant.
// Meal-only and restaurant-only fields are left zero for the other kind.
type Item struct {
	ID          string   `json:"id"`
	Type        ItemType `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Cuisine     string   `json:"cuisine,omitempty"`
	IsFavorite  bool     `json:"is_favorite"`

	// Meals
	DifficultyLevel string `json:"difficulty_level,omitempty"`
	PrepTimeMinutes int    `json:"prep_time_minutes,omitempty"`

	// Restaurants
	Rating     *float64       `json:"rating,omitempty"`
	PriceRange string         `json:"price_range,omitempty"`
	Schedule   WeeklySchedule `json:"opening_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RatingValue returns the rating and whether one is present.
func (i Item) RatingValue() (float64, bool) {
	if i.Rating == nil {
		return 0, false
	}
	return *i.Rating, true
}

// Validate checks the invariants every stored item must hold.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: item %s: %w", ErrInvalidItem, i.ID, ErrInvalidItemType)
	}
	if r, ok := i.RatingValue(); ok && (r < MinRating || r > MaxRating) {
		return fmt.Errorf("%w: item %s: rating %.2f outside [0,5]", ErrInvalidItem, i.ID, r)
	}
	if i.Schedule != nil {
		if err := i.Schedule.Validate(); err != nil {
			return fmt.Errorf("%w: item %s: %w", ErrInvalidItem, i.ID, err)
		}
	}
	return nil
}

// Float64Ptr is a convenience for optional numeric fields.
func Float64Ptr(v float64) *float64 { return &v }
