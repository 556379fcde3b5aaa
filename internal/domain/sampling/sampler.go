package sampling

import (
	"github.com/okian/mealspin/internal/domain/model"
)

// Weighting constants.
const (
	baseWeight       = 1.0
	favoriteBoost    = 2.5
	ratingScale      = model.MaxRating
	ratingBaseOffset = 0.5
)

// Sampler draws single items from candidate lists.
type Sampler struct {
	rng Rand
}

// New returns a sampler drawing from rng.
func New(rng Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Weight returns the relative selection weight of item: 1, times 2.5 for a
// favorite, times rating/5+0.5 for a positive rating.
func Weight(item model.Item) float64 {
	w := baseWeight
	if item.IsFavorite {
		w *= favoriteBoost
	}
	if r, ok := item.RatingValue(); ok && r > 0 {
		w *= r/ratingScale + ratingBaseOffset
	}
	return w
}

// Sample returns one element of items. With weightFavorites unset every item
// is equally likely; otherwise each item's chance is proportional to Weight.
// A single-element list is returned without consuming randomness.
//
// Sample panics if items is empty; callers handle emptiness first.
func (s *Sampler) Sample(items []model.Item, weightFavorites bool) model.Item {
	switch len(items) {
	case 0:
		panic("sampling: Sample called with no items")
	case 1:
		return items[0]
	}

	if !weightFavorites {
		idx := int(s.rng.Float64() * float64(len(items)))
		if idx >= len(items) {
			idx = len(items) - 1
		}
		return items[idx]
	}

	total := 0.0
	weights := make([]float64, len(items))
	for i, item := range items {
		weights[i] = Weight(item)
		total += weights[i]
	}

	r := s.rng.Float64() * total
	for i, item := range items {
		r -= weights[i]
		if r <= 0 {
			return item
		}
	}

	// float drift
	return items[len(items)-1]
}
