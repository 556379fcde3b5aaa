package suggest_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/suggest"
)

type catalogCall struct {
	itemType model.ItemType
	filters  model.Filters
	limit    int
}

type fakeCatalog struct {
	mu    sync.Mutex
	items map[model.ItemType][]model.Item
	err   error
	calls []catalogCall
}

func newFakeCatalog(items ...model.Item) *fakeCatalog {
	c := &fakeCatalog{items: make(map[model.ItemType][]model.Item)}
	for _, item := range items {
		c.items[item.Type] = append(c.items[item.Type], item)
	}
	return c
}

func (c *fakeCatalog) QueryItems(_ context.Context, _ string, itemType model.ItemType, filters model.Filters, limit int) ([]model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, catalogCall{itemType: itemType, filters: filters, limit: limit})
	if c.err != nil {
		return nil, c.err
	}
	var out []model.Item
	for _, item := range c.items[itemType] {
		if filters.Matches(item) {
			out = append(out, item)
		}
	}
	if filters.Sort == model.SortNewest {
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCatalog) callsFor(itemType model.ItemType) []catalogCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []catalogCall
	for _, call := range c.calls {
		if call.itemType == itemType {
			out = append(out, call)
		}
	}
	return out
}

type fakeHistory struct {
	mu          sync.Mutex
	recent      map[model.ItemType][]string
	counts      map[model.ItemType][]model.SelectionCount
	records     []model.SelectionRecord
	recentErr   error
	appendErr   error
	countsErr   error
	recentCalls int
	recentDays  []int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		recent: make(map[model.ItemType][]string),
		counts: make(map[model.ItemType][]model.SelectionCount),
	}
}

func (h *fakeHistory) RecentItemIDs(_ context.Context, _ string, itemType model.ItemType, days int) (map[string]struct{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recentCalls++
	h.recentDays = append(h.recentDays, days)
	if h.recentErr != nil {
		return nil, h.recentErr
	}
	ids := make(map[string]struct{})
	for _, id := range h.recent[itemType] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (h *fakeHistory) AppendSelection(_ context.Context, rec model.SelectionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	h.records = append(h.records, rec)
	return nil
}

func (h *fakeHistory) MostSelected(_ context.Context, _ string, itemType model.ItemType, limit int) ([]model.SelectionCount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.countsErr != nil {
		return nil, h.countsErr
	}
	out := h.counts[itemType]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (h *fakeHistory) RecentSelections(_ context.Context, _ string, limit int) ([]model.SelectionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.SelectionRecord, 0, len(h.records))
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

type fakePrefs struct {
	prefs model.Preferences
	err   error
}

func (p *fakePrefs) Preferences(context.Context, string) (model.Preferences, error) {
	return p.prefs, p.err
}

// scriptedRand replays values in order, then keeps returning the last one.
type scriptedRand struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0
	}
	if r.next >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	v := r.values[r.next]
	r.next++
	return v
}

// monday is 2024-01-01, a Monday, at the given hour in UTC.
func monday(hour int) func() time.Time {
	return func() time.Time { return time.Date(2024, time.January, 1, hour, 0, 0, 0, time.UTC) }
}

func pref(p model.SuggestionPreference) *model.SuggestionPreference { return &p }
func intPtr(v int) *int                                                { return &v }
func strPtr(v string) *string                                          { return &v }

func meal(id, cuisine string) model.Item {
	return model.Item{ID: id, Type: model.ItemTypeMeal, Name: id, Cuisine: cuisine}
}

func restaurant(id string, schedule model.WeeklySchedule) model.Item {
	return model.Item{ID: id, Type: model.ItemTypeRestaurant, Name: id, Schedule: schedule}
}

func closedOnMonday() model.WeeklySchedule {
	return model.WeeklySchedule{time.Monday: {IsClosed: true}}
}

func newEngine(c *fakeCatalog, h *fakeHistory, p *fakePrefs, opts ...suggest.Option) *suggest.Engine {
	base := []suggest.Option{
		suggest.WithClock(monday(15)),
		suggest.WithLocation(time.UTC),
	}
	return suggest.New(c, h, p, append(base, opts...)...)
}
