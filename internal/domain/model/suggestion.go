package model

// Suggestion is either a meal or a restaurant; exactly one of Meal and
// Restaurant is set, matching Type.
type Suggestion struct {
	Type       ItemType `json:"type"`
	Meal       *Item    `json:"meal,omitempty"`
	Restaurant *Item    `json:"restaurant,omitempty"`
}

// MealSuggestion wraps a meal.
func MealSuggestion(item Item) Suggestion {
	return Suggestion{Type: ItemTypeMeal, Meal: &item}
}

// RestaurantSuggestion wraps a restaurant.
func RestaurantSuggestion(item Item) Suggestion {
	return Suggestion{Type: ItemTypeRestaurant, Restaurant: &item}
}

// Item returns the wrapped item.
func (s Suggestion) Item() Item {
	switch s.Type {
	case ItemTypeMeal:
		if s.Meal != nil {
			return *s.Meal
		}
	case ItemTypeRestaurant:
		if s.Restaurant != nil {
			return *s.Restaurant
		}
	}
	return Item{}
}

// Cuisine returns the wrapped item's cuisine, empty when unknown.
func (s Suggestion) Cuisine() string {
	return s.Item().Cuisine
}
