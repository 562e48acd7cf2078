// Package dedupe tracks which subject ids have already been emitted within
// one unit of work, such as a single uploaded photo.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen ids so each is emitted at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id, letting a later SeenAndRecord emit it again.
	// Used when an emitted id could not be applied downstream.
	Unrecord(ctx context.Context, id string)

	// Seen returns the recorded ids in first-seen order.
	Seen() []string

	Size() int64
}

// inMemoryDeduper keeps ids in a map with a slice for first-seen order.
type inMemoryDeduper struct {
	mu    sync.Mutex
	index map[string]struct{}
	order []string
}

// NewInMemoryDeduper creates an empty, unbounded deduper.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{index: make(map[string]struct{})}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; ok {
		return true
	}
	d.index[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[id]; !ok {
		return
	}
	delete(d.index, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *inMemoryDeduper) Seen() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.order))
}
