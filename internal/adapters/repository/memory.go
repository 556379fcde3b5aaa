package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/pkg/metrics"
)

const (
	storeMemory                  = "memory"
	defaultMetricsUpdateInterval = 5 * time.Second
	day                          = 24 * time.Hour
)

// MemoryStore keeps catalogs, history and preferences in process memory.
// It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	items       map[string][]model.Item // user -> items in insertion order
	selections  map[string][]model.SelectionRecord
	preferences map[string]model.Preferences
	selectionN  int

	now                   func() time.Time
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:                 make(map[string][]model.Item),
		selections:            make(map[string][]model.SelectionRecord),
		preferences:           make(map[string]model.Preferences),
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// AddItem validates item and adds it to userID's catalog. A zero CreatedAt is
// set to the current time.
func (s *MemoryStore) AddItem(userID string, item model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items[userID] {
		if existing.Type == item.Type && existing.ID == item.ID {
			return fmt.Errorf("%w: duplicate %s id %q", model.ErrInvalidItem, item.Type, item.ID)
		}
	}
	s.items[userID] = append(s.items[userID], item)
	return nil
}

// SetPreferences replaces userID's preferences.
func (s *MemoryStore) SetPreferences(userID string, prefs model.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[userID] = prefs
}

// QueryItems returns up to limit of the user's items of itemType matching filters.
func (s *MemoryStore) QueryItems(_ context.Context, userID string, itemType model.ItemType, filters model.Filters, limit int) ([]model.Item, error) {
	defer observe("query_items", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	out := make([]model.Item, 0)
	for _, item := range s.items[userID] {
		if item.Type == itemType && filters.Matches(item) {
			out = append(out, item)
		}
	}
	s.mu.RUnlock()

	if filters.Sort == model.SortNewest {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentItemIDs returns ids of itemType the user selected within the last days days.
func (s *MemoryStore) RecentItemIDs(_ context.Context, userID string, itemType model.ItemType, days int) (map[string]struct{}, error) {
	defer observe("recent_item_ids", time.Now())
	ids := make(map[string]struct{})
	if days <= 0 {
		return ids, nil
	}
	since := s.now().Add(-time.Duration(days) * day)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.selections[userID] {
		if rec.ItemType == itemType && !rec.SelectedAt.Before(since) {
			ids[rec.ItemID] = struct{}{}
		}
	}
	return ids, nil
}

// AppendSelection stores rec. Records are never merged or deduplicated.
func (s *MemoryStore) AppendSelection(_ context.Context, rec model.SelectionRecord) error {
	defer observe("append_selection", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[rec.UserID] = append(s.selections[rec.UserID], rec)
	s.selectionN++
	return nil
}

// MostSelected returns per-item counts of itemType, highest first, ties by item id.
func (s *MemoryStore) MostSelected(_ context.Context, userID string, itemType model.ItemType, limit int) ([]model.SelectionCount, error) {
	defer observe("most_selected", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	counts := make(map[string]int)
	for _, rec := range s.selections[userID] {
		if rec.ItemType == itemType {
			counts[rec.ItemID]++
		}
	}
	s.mu.RUnlock()

	out := make([]model.SelectionCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.SelectionCount{ItemType: itemType, ItemID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ItemID < out[j].ItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentSelections returns the user's latest selections, newest first.
func (s *MemoryStore) RecentSelections(_ context.Context, userID string, limit int) ([]model.SelectionRecord, error) {
	defer observe("recent_selections", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.RLock()
	recs := append([]model.SelectionRecord(nil), s.selections[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].SelectedAt.After(recs[j].SelectedAt) })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Preferences returns the stored preferences, or the zero value for unknown users.
func (s *MemoryStore) Preferences(_ context.Context, userID string) (model.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferences[userID], nil
}

// Stats reports item and selection counts across all users.
func (s *MemoryStore) Stats(context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked(), nil
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) statsLocked() Stats {
	var st Stats
	for _, items := range s.items {
		for _, item := range items {
			switch item.Type {
			case model.ItemTypeMeal:
				st.Meals++
			case model.ItemTypeRestaurant:
				st.Restaurants++
			}
		}
	}
	st.Selections = s.selectionN
	return st
}

// startMetricsUpdater periodically publishes store sizes.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	st := s.statsLocked()
	s.mu.RUnlock()

	metrics.UpdateRepositoryItems(model.ItemTypeMeal.String(), st.Meals)
	metrics.UpdateRepositoryItems(model.ItemTypeRestaurant.String(), st.Restaurants)
	metrics.UpdateRepositorySelections(st.Selections)
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryQuery(storeMemory, op, float64(time.Since(start).Microseconds())/1000)
}
