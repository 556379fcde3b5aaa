// Package sampling picks one item out of a candidate list, either uniformly or
// with favorites and highly rated items over-represented.
package sampling

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the randomness the sampler and the engine's coin flips draw from.
// Float64 must return a value in [0,1).
type Rand interface {
	Float64() float64
}

// LockedRand is a seeded *rand.Rand that is safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedRand returns a goroutine-safe source seeded with seed. A zero seed
// seeds from the wall clock.
func NewLockedRand(seed int64) *LockedRand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &LockedRand{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // suggestions are not security sensitive
}

// Float64 returns a pseudo-random number in [0,1).
func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}
