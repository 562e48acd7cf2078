package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Layouts of the persisted day key and entry timestamp.
const (
	DayLayout       = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05"
)

// Ledger implements Store on top of a Backend.
//
// Every mutation is a full read-modify-replace of the day's ledger under one
// mutex, so concurrent upserts never lose each other's writes and the last
// one to commit wins. Reads take no lock; the Backend's atomic Replace keeps
// them from seeing a partial ledger.
type Ledger struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
	loc     *time.Location
	logger  logger.Logger
}

var _ Store = (*Ledger)(nil)

// NewLedger creates a Ledger over backend.
func NewLedger(backend Backend, opts ...Option) *Ledger {
	l := &Ledger{
		backend: backend,
		now:     time.Now,
		loc:     time.Local,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DayKey returns the ledger key for t's calendar date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// Write is the result of one committed ledger mutation.
type Write struct {
	Entry    model.Entry
	Previous model.Status
	Replaced bool
}

// Record implements Store. The timestamp and day are read from the clock
// after the ledger lock is taken, so a write is filed under the day it
// commits in.
func (l *Ledger) Record(ctx context.Context, subjectID string, status model.Status) (Write, error) {
	return l.write(ctx, "repository.record", subjectID, status, l.now)
}

// Upsert implements Store.
func (l *Ledger) Upsert(ctx context.Context, subjectID string, status model.Status, at time.Time) (model.Status, bool, error) {
	w, err := l.write(ctx, "repository.upsert", subjectID, status, func() time.Time { return at })
	if err != nil {
		return "", false, err
	}
	return w.Previous, w.Replaced, nil
}

func (l *Ledger) write(ctx context.Context, op, subjectID string, status model.Status, stamp func() time.Time) (Write, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Write{}, fmt.Errorf("%s: %w: empty subject id", op, ErrInvalidEntry)
	}
	if !status.Valid() {
		return Write{}, fmt.Errorf("%s: %w: status %q", op, ErrInvalidEntry, status)
	}
	if err := ctx.Err(); err != nil {
		return Write{}, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Once the lock is held the write runs to commit or clean failure;
	// the backend is not handed a context that could abort it halfway.
	bg := context.WithoutCancel(ctx)

	at := stamp().In(l.loc).Truncate(time.Second)
	day := at.Format(DayLayout)

	entries, err := l.backend.Load(bg, day)
	if err != nil {
		metrics.RecordPersistenceFailure("load")
		return Write{}, fmt.Errorf("%s: %w: load %s: %w", op, model.ErrPersistence, day, err)
	}

	prev, replaced := entries[subjectID]
	entry := model.Entry{SubjectID: subjectID, Status: status, ObservedAt: at}
	entries[subjectID] = entry

	if err := l.backend.Replace(bg, day, sorted(entries)); err != nil {
		metrics.RecordPersistenceFailure("replace")
		l.logger.Error(ctx, "ledger replace failed",
			logger.String("day", day),
			logger.String("subject_id", subjectID),
			logger.Error(err),
		)
		return Write{}, fmt.Errorf("%s: %w: replace %s: %w", op, model.ErrPersistence, day, err)
	}

	latency := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordLedgerUpsert(replaced, latency)
	l.logger.Debug(ctx, "ledger entry written",
		logger.String("day", day),
		logger.String("subject_id", subjectID),
		logger.String("status", string(status)),
		logger.Bool("replaced", replaced),
		logger.Float64("latency_ms", latency),
	)
	return Write{Entry: entry, Previous: prev.Status, Replaced: replaced}, nil
}

// Snapshot implements Store.
func (l *Ledger) Snapshot(ctx context.Context) ([]model.Entry, error) {
	return l.SnapshotFor(ctx, l.now())
}

// SnapshotFor implements Store.
func (l *Ledger) SnapshotFor(ctx context.Context, day time.Time) ([]model.Entry, error) {
	const op = "repository.snapshot"
	key := DayKey(day, l.loc)
	start := time.Now()

	entries, err := l.backend.Load(ctx, key)
	if err != nil {
		metrics.RecordPersistenceFailure("load")
		return nil, fmt.Errorf("%s: %w: load %s: %w", op, model.ErrPersistence, key, err)
	}
	metrics.RecordLedgerSnapshot(float64(time.Since(start).Microseconds()) / 1000)
	return sorted(entries), nil
}

// Today implements Store.
func (l *Ledger) Today() time.Time {
	y, m, d := l.now().In(l.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, l.loc)
}

// Location implements Store.
func (l *Ledger) Location() *time.Location { return l.loc }

// Close implements Store.
func (l *Ledger) Close() error {
	return l.backend.Close()
}

func sorted(entries map[string]model.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out
}
