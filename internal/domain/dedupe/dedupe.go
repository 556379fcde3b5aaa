// Package dedupe remembers request ids so retried writes are applied once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/mealspin/internal/domain/model"
)

const defaultMaxSize = 10000

// Deduper tracks request ids and the selection each one produced.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the request can be retried, typically after the
	// write it guarded failed.
	Unrecord(ctx context.Context, id string)

	// Complete stores the record produced for a previously recorded id.
	Complete(ctx context.Context, id string, rec model.SelectionRecord)

	// Lookup returns the record stored for id. ok is false while the first
	// request for id is still in flight or when id is unknown.
	Lookup(ctx context.Context, id string) (rec model.SelectionRecord, ok bool)

	Size() int64
}

type entry struct {
	id   string
	rec  model.SelectionRecord
	done bool
}

// inMemoryDeduper keeps ids in insertion order and evicts the oldest once
// maxSize is reached. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(&entry{id: id})
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[id]; exists {
		d.order.Remove(el)
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Complete(_ context.Context, id string, rec model.SelectionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, exists := d.seen[id]; exists {
		e := el.Value.(*entry)
		e.rec = rec
		e.done = true
	}
}

func (d *inMemoryDeduper) Lookup(_ context.Context, id string) (model.SelectionRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, exists := d.seen[id]
	if !exists {
		return model.SelectionRecord{}, false
	}
	e := el.Value.(*entry)
	return e.rec, e.done
}

// evictOldest drops the earliest recorded id. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	d.order.Remove(front)
	delete(d.seen, front.Value.(*entry).id)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
