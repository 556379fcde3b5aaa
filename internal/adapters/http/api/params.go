package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/suggest"
	"github.com/okian/mealspin/internal/validation"
)

// pickParams are the knobs shared by every sampling endpoint.
type pickParams struct {
	ExcludeRecentDays int  `query:"exclude_recent_days" validate:"gte=0,lte=365"`
	WeightFavorites   bool `query:"weight_favorites"`
}

type mealFilterParams struct {
	Cuisine         string `query:"cuisine" validate:"max=64"`
	DifficultyLevel string `query:"difficulty_level" validate:"omitempty,oneof=easy medium hard"`
	PrepTimeMax     int    `query:"prep_time_max" validate:"gte=0,lte=1440"`
	FavoritesOnly   bool   `query:"favorites_only"`
}

func (p mealFilterParams) filters() model.Filters {
	return model.Filters{
		Cuisine:         p.Cuisine,
		DifficultyLevel: p.DifficultyLevel,
		MaxPrepTime:     p.PrepTimeMax,
		FavoritesOnly:   p.FavoritesOnly,
	}
}

type restaurantFilterParams struct {
	Cuisine       string   `query:"cuisine" validate:"max=64"`
	PriceRange    string   `query:"price_range" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	MinRating     *float64 `query:"min_rating" validate:"omitempty,gte=0,lte=5"`
	FavoritesOnly bool     `query:"favorites_only"`
}

func (p restaurantFilterParams) filters() model.Filters {
	return model.Filters{
		Cuisine:       p.Cuisine,
		PriceRange:    p.PriceRange,
		MinRating:     p.MinRating,
		FavoritesOnly: p.FavoritesOnly,
	}
}

type countParams struct {
	Count int `query:"count" validate:"min=1"`
}

type limitParams struct {
	Limit int `query:"limit" validate:"min=1"`
}

// queryReader reads typed query parameters, optionally under a name prefix,
// and collects parse failures.
type queryReader struct {
	values url.Values
	prefix string
	errs   []error
}

func newQueryReader(values url.Values, prefix string) *queryReader {
	return &queryReader{values: values, prefix: prefix}
}

func (q *queryReader) raw(name string) (string, bool) {
	key := q.prefix + name
	if !q.values.Has(key) {
		return "", false
	}
	return strings.TrimSpace(q.values.Get(key)), true
}

func (q *queryReader) str(name string) string {
	v, _ := q.raw(name)
	return v
}

func (q *queryReader) integer(name string, def int) int {
	v, ok := q.raw(name)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("%s%s must be an integer", q.prefix, name))
		return def
	}
	return n
}

func (q *queryReader) boolean(name string, def bool) bool {
	v, ok := q.raw(name)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("%s%s must be a boolean", q.prefix, name))
		return def
	}
	return b
}

func (q *queryReader) float(name string) *float64 {
	v, ok := q.raw(name)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("%s%s must be a number", q.prefix, name))
		return nil
	}
	return &f
}

func (q *queryReader) err() error {
	return errors.Join(q.errs...)
}

// decode finishes a read: parse errors first, then struct rules.
func decode(op string, q *queryReader, v any) error {
	if err := q.err(); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validation.Struct(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

func readPick(op string, values url.Values, defaults suggest.Options) (pickParams, error) {
	q := newQueryReader(values, "")
	p := pickParams{
		ExcludeRecentDays: q.integer("exclude_recent_days", defaults.ExcludeRecentDays),
		WeightFavorites:   q.boolean("weight_favorites", defaults.WeightFavorites),
	}
	return p, decode(op, q, &p)
}

func readMealFilters(op string, values url.Values, prefix string) (model.Filters, error) {
	q := newQueryReader(values, prefix)
	p := mealFilterParams{
		Cuisine:         q.str("cuisine"),
		DifficultyLevel: strings.ToLower(q.str("difficulty_level")),
		PrepTimeMax:     q.integer("prep_time_max", 0),
		FavoritesOnly:   q.boolean("favorites_only", false),
	}
	if err := decode(op, q, &p); err != nil {
		return model.Filters{}, err
	}
	return p.filters(), nil
}

func readRestaurantFilters(op string, values url.Values, prefix string) (model.Filters, error) {
	q := newQueryReader(values, prefix)
	p := restaurantFilterParams{
		Cuisine:       q.str("cuisine"),
		PriceRange:    q.str("price_range"),
		MinRating:     q.float("min_rating"),
		FavoritesOnly: q.boolean("favorites_only", false),
	}
	if err := decode(op, q, &p); err != nil {
		return model.Filters{}, err
	}
	return p.filters(), nil
}

// readOptions parses the request into engine options. Filters for each kind
// are read under the meal_ and restaurant_ prefixes.
func readOptions(op string, values url.Values, defaults suggest.Options) (suggest.Options, error) {
	pick, err := readPick(op, values, defaults)
	if err != nil {
		return suggest.Options{}, err
	}
	mealFilters, err := readMealFilters(op, values, "meal_")
	if err != nil {
		return suggest.Options{}, err
	}
	restaurantFilters, err := readRestaurantFilters(op, values, "restaurant_")
	if err != nil {
		return suggest.Options{}, err
	}
	return suggest.Options{
		ExcludeRecentDays: pick.ExcludeRecentDays,
		WeightFavorites:   pick.WeightFavorites,
		MealFilters:       mealFilters,
		RestaurantFilters: restaurantFilters,
	}, nil
}

func readCount(op string, values url.Values, def, max int) (int, error) {
	q := newQueryReader(values, "")
	p := countParams{Count: q.integer("count", def)}
	if err := decode(op, q, &p); err != nil {
		return 0, err
	}
	if p.Count > max {
		return 0, WrapKind(op, ErrLimitExceeded, fmt.Errorf("count must be at most %d", max))
	}
	return p.Count, nil
}

func readLimit(op string, values url.Values, def, max int) (int, error) {
	q := newQueryReader(values, "")
	p := limitParams{Limit: q.integer("limit", def)}
	if err := decode(op, q, &p); err != nil {
		return 0, err
	}
	if p.Limit > max {
		return 0, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit must be at most %d", max))
	}
	return p.Limit, nil
}
