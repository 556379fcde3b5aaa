package spincheck

import (
	"sort"
	"sync"
)

// Share is one bucket of a distribution.
type Share struct {
	Key     string  `json:"key"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution is a snapshot of a Tally.
type Distribution struct {
	Total    int     `json:"total"`
	Types    []Share `json:"types"`
	Items    []Share `json:"items"`
	Cuisines []Share `json:"cuisines"`
}

// Tally counts picks by type, item and cuisine. It is safe for concurrent use.
type Tally struct {
	mu       sync.Mutex
	total    int
	types    map[string]int
	items    map[string]int
	cuisines map[string]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{
		types:    make(map[string]int),
		items:    make(map[string]int),
		cuisines: make(map[string]int),
	}
}

// Add counts one pick. Items without a cuisine are counted as "unknown".
func (t *Tally) Add(itemType, itemID, cuisine string) {
	if cuisine == "" {
		cuisine = "unknown"
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	t.types[itemType]++
	t.items[itemType+":"+itemID]++
	t.cuisines[cuisine]++
}

// Snapshot returns the current distribution, largest share first and ties by key.
func (t *Tally) Snapshot() Distribution {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Distribution{
		Total:    t.total,
		Types:    shares(t.types, t.total),
		Items:    shares(t.items, t.total),
		Cuisines: shares(t.cuisines, t.total),
	}
}

func shares(counts map[string]int, total int) []Share {
	out := make([]Share, 0, len(counts))
	for k, n := range counts {
		s := Share{Key: k, Count: n}
		if total > 0 {
			s.Percent = float64(n) / float64(total) * percentageMultiplier
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
