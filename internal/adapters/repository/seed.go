package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/mealspin/internal/domain/model"
)

// seedFile is the on-disk catalog format:
//
//	users:
//	  - id: alice
//	    preferences:
//	      preferred_suggestion_type: meal
//	    meals:
//	      - id: pad-thai
//	        name: Pad Thai
//	        cuisine: thai
//	    restaurants:
//	      - id: corner-bistro
//	        rating: 4.5
//	        opening_hours:
//	          monday: {is_closed: true}
//	          tuesday: {open: "11:00", close: "22:00"}
//	          # ... all seven days
type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	ID          string          `yaml:"id"`
	Preferences seedPreferences `yaml:"preferences"`
	Meals       []seedItem      `yaml:"meals"`
	Restaurants []seedItem      `yaml:"restaurants"`
}

type seedItem struct {
	ID              string                       `yaml:"id"`
	Name            string                       `yaml:"name"`
	Description     string                       `yaml:"description"`
	Cuisine         string                       `yaml:"cuisine"`
	IsFavorite      bool                         `yaml:"is_favorite"`
	DifficultyLevel string                       `yaml:"difficulty_level"`
	PrepTimeMinutes int                          `yaml:"prep_time_minutes"`
	Rating          *float64                     `yaml:"rating"`
	PriceRange      string                       `yaml:"price_range"`
	OpeningHours    map[string]model.DaySchedule `yaml:"opening_hours"`
	CreatedAt       time.Time                    `yaml:"created_at"`
}

type seedPreferences struct {
	MealSuggestionCount      *int     `yaml:"meal_suggestion_count"`
	SuggestionCount          *int     `yaml:"suggestion_count"`
	PreferredSuggestionType  *string  `yaml:"preferred_suggestion_type"`
	PreferredCuisineType     *string  `yaml:"preferred_cuisine_type"`
	PreferredDifficultyLevel *string  `yaml:"preferred_difficulty_level"`
	PreferredPriceRange      *string  `yaml:"preferred_price_range"`
	MaxPrepTime              *int     `yaml:"max_prep_time"`
	MinRating                *float64 `yaml:"min_rating"`
}

// LoadCatalogFile reads a YAML catalog seed from path into s.
func (s *MemoryStore) LoadCatalogFile(path string) error {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return s.LoadCatalog(f)
}

// LoadCatalog reads a YAML catalog seed from r into s. Items are validated and
// the first invalid one aborts the load.
func (s *MemoryStore) LoadCatalog(r io.Reader) error {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	for _, u := range seed.Users {
		if u.ID == "" {
			return fmt.Errorf("%w: user without id", ErrInvalidSeed)
		}
		for _, raw := range u.Meals {
			item, err := raw.toItem(model.ItemTypeMeal)
			if err != nil {
				return fmt.Errorf("%w: user %s: %w", ErrInvalidSeed, u.ID, err)
			}
			if err := s.AddItem(u.ID, item); err != nil {
				return fmt.Errorf("%w: user %s: %w", ErrInvalidSeed, u.ID, err)
			}
		}
		for _, raw := range u.Restaurants {
			item, err := raw.toItem(model.ItemTypeRestaurant)
			if err != nil {
				return fmt.Errorf("%w: user %s: %w", ErrInvalidSeed, u.ID, err)
			}
			if err := s.AddItem(u.ID, item); err != nil {
				return fmt.Errorf("%w: user %s: %w", ErrInvalidSeed, u.ID, err)
			}
		}
		s.SetPreferences(u.ID, u.Preferences.toPreferences())
	}
	return nil
}

func (raw seedItem) toItem(itemType model.ItemType) (model.Item, error) {
	item := model.Item{
		ID:              raw.ID,
		Type:            itemType,
		Name:            raw.Name,
		Description:     raw.Description,
		Cuisine:         raw.Cuisine,
		IsFavorite:      raw.IsFavorite,
		DifficultyLevel: raw.DifficultyLevel,
		PrepTimeMinutes: raw.PrepTimeMinutes,
		Rating:          raw.Rating,
		PriceRange:      raw.PriceRange,
		CreatedAt:       raw.CreatedAt,
	}
	if len(raw.OpeningHours) > 0 {
		schedule, err := model.ScheduleFromNames(raw.OpeningHours)
		if err != nil {
			return model.Item{}, fmt.Errorf("item %s: %w", raw.ID, err)
		}
		item.Schedule = schedule
	}
	return item, nil
}

func (raw seedPreferences) toPreferences() model.Preferences {
	p := model.Preferences{
		MealSuggestionCount:      raw.MealSuggestionCount,
		SuggestionCount:          raw.SuggestionCount,
		PreferredCuisineType:     raw.PreferredCuisineType,
		PreferredDifficultyLevel: raw.PreferredDifficultyLevel,
		PreferredPriceRange:      raw.PreferredPriceRange,
		MaxPrepTime:              raw.MaxPrepTime,
		MinRating:                raw.MinRating,
	}
	if raw.PreferredSuggestionType != nil {
		t := model.SuggestionPreference(*raw.PreferredSuggestionType)
		p.PreferredSuggestionType = &t
	}
	return p
}
