package repository

import (
	"context"
	"sync"

	"github.com/okian/rollcall/internal/domain/model"
)

// MemoryBackend keeps ledgers in process memory. Replace swaps a fresh map in
// whole, so readers holding an older map are unaffected.
type MemoryBackend struct {
	mu   sync.RWMutex
	days map[string]map[string]model.Entry
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{days: make(map[string]map[string]model.Entry)}
}

// Load implements Backend.
func (b *MemoryBackend) Load(_ context.Context, day string) (map[string]model.Entry, error) {
	b.mu.RLock()
	cur := b.days[day]
	b.mu.RUnlock()

	out := make(map[string]model.Entry, len(cur))
	for k, v := range cur {
		out[k] = v
	}
	return out, nil
}

// Replace implements Backend.
func (b *MemoryBackend) Replace(_ context.Context, day string, entries []model.Entry) error {
	next := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		next[e.SubjectID] = e
	}
	b.mu.Lock()
	b.days[day] = next
	b.mu.Unlock()
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error { return nil }
