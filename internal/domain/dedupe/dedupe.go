// Package dedupe tracks operation IDs so repeated requests apply at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen IDs together with the value they were first recorded with.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records value
	// for it if not. When id was already seen it returns the original value
	// and true.
	SeenAndRecord(ctx context.Context, id, value string) (string, bool)

	// Lookup returns the value recorded for id.
	Lookup(ctx context.Context, id string) (string, bool)

	// Unrecord forgets id and returns the value it was recorded with. It is
	// used when the guarded operation is undone or failed after recording.
	Unrecord(ctx context.Context, id string) (string, bool)

	Size() int64
}

type entry struct {
	id    string
	value string
}

// inMemoryDeduper keeps IDs in a map plus an insertion-ordered list.
// When bounded, the oldest ID is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int // 0 or negative means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id, value string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		return el.Value.(entry).value, true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(entry{id: id, value: value})
	d.size.Add(1)
	return value, false
}

func (d *inMemoryDeduper) Lookup(_ context.Context, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[id]
	if !ok {
		return "", false
	}
	return el.Value.(entry).value, true
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.seen[id]
	if !ok {
		return "", false
	}
	delete(d.seen, id)
	d.order.Remove(el)
	d.size.Add(-1)
	return el.Value.(entry).value, true
}

// evictOldest drops the first recorded entry. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	delete(d.seen, front.Value.(entry).id)
	d.order.Remove(front)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
