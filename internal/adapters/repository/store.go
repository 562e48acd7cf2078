// Package repository holds the attendance ledger: one snapshot of
// subject -> status per calendar day, persisted through a Backend.
package repository

import (
	"context"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// Store provides read/write access to the daily ledgers.
type Store interface {
	// Record writes status for subjectID into today's ledger, stamped with
	// the time the write commits.
	Record(ctx context.Context, subjectID string, status model.Status) (Write, error)

	// Upsert replaces the entry for subjectID in the ledger of at's calendar
	// day and returns the status it replaced, if any.
	Upsert(ctx context.Context, subjectID string, status model.Status, at time.Time) (prev model.Status, replaced bool, err error)

	// Snapshot returns today's entries ordered by subject id.
	Snapshot(ctx context.Context) ([]model.Entry, error)

	// SnapshotFor returns the entries of day's ledger ordered by subject id.
	SnapshotFor(ctx context.Context, day time.Time) ([]model.Entry, error)

	// Today returns the calendar day the store currently targets.
	Today() time.Time

	// Location returns the time zone days are computed in.
	Location() *time.Location

	Close() error
}

// Backend persists whole daily ledgers. Replace must be atomic: a concurrent
// Load observes either the previous or the new ledger, and a failed Replace
// leaves the previous ledger in place.
type Backend interface {
	// Load returns the ledger for day; a day never written is an empty map.
	Load(ctx context.Context, day string) (map[string]model.Entry, error)

	// Replace swaps in entries as the complete ledger for day.
	Replace(ctx context.Context, day string, entries []model.Entry) error

	Close() error
}
