package repository

import (
	"fmt"
	"strings"

	"github.com/okian/mealspin/internal/domain/model"
)

const (
	mealColumns       = "id, name, description, cuisine, is_favorite, difficulty_level, prep_time_minutes, NULL::double precision, '', NULL::jsonb, created_at"
	restaurantColumns = "id, name, description, cuisine, is_favorite, '', 0, rating, price_range, opening_hours, created_at"
)

// buildItemQuery renders the SELECT for one user's items of itemType. Filters
// that do not apply to the item type match nothing, the same as
// model.Filters.Matches.
func buildItemQuery(userID string, itemType model.ItemType, f model.Filters, limit int) (string, []any) {
	var (
		args       []any
		conditions []string
		idx        = 1
	)

	table, columns := "meals", mealColumns
	if itemType == model.ItemTypeRestaurant {
		table, columns = "restaurants", restaurantColumns
	}

	conditions = append(conditions, fmt.Sprintf("user_id = $%d", idx))
	args = append(args, userID)
	idx++

	if f.Cuisine != "" {
		conditions = append(conditions, fmt.Sprintf("cuisine ILIKE $%d", idx))
		args = append(args, escapeLike(f.Cuisine))
		idx++
	}

	if f.FavoritesOnly {
		conditions = append(conditions, "is_favorite")
	}

	switch itemType {
	case model.ItemTypeMeal:
		if f.DifficultyLevel != "" {
			conditions = append(conditions, fmt.Sprintf("difficulty_level ILIKE $%d", idx))
			args = append(args, escapeLike(f.DifficultyLevel))
			idx++
		}
		if f.MaxPrepTime > 0 {
			conditions = append(conditions, fmt.Sprintf("prep_time_minutes > 0 AND prep_time_minutes <= $%d", idx))
			args = append(args, f.MaxPrepTime)
			idx++
		}
		if f.PriceRange != "" || f.MinRating != nil {
			conditions = append(conditions, "FALSE")
		}
	case model.ItemTypeRestaurant:
		if f.PriceRange != "" {
			conditions = append(conditions, fmt.Sprintf("price_range = $%d", idx))
			args = append(args, f.PriceRange)
			idx++
		}
		if f.MinRating != nil {
			conditions = append(conditions, fmt.Sprintf("rating >= $%d", idx))
			args = append(args, *f.MinRating)
			idx++
		}
		if f.DifficultyLevel != "" || f.MaxPrepTime > 0 {
			conditions = append(conditions, "FALSE")
		}
	}

	order := "id"
	if f.Sort == model.SortNewest {
		order = "created_at DESC, id"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $%d",
		columns, table, strings.Join(conditions, " AND "), order, idx)
	args = append(args, limit)
	return query, args
}

// escapeLike makes an ILIKE pattern match its input literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
