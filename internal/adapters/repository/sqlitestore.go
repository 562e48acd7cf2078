package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/rollcall/internal/domain/model"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS attendance (
	day       TEXT NOT NULL,
	roll      TEXT NOT NULL,
	status    TEXT NOT NULL CHECK (status IN ('Present', 'Absent')),
	timestamp TEXT NOT NULL,
	PRIMARY KEY (day, roll)
)`

// SQLiteBackend keeps every day's ledger in one table keyed by (day, roll).
// Replace rewrites the day inside a single transaction.
type SQLiteBackend struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLiteBackend opens (or creates) the database at path in WAL mode.
func NewSQLiteBackend(ctx context.Context, path string, loc *time.Location) (*SQLiteBackend, error) {
	if loc == nil {
		loc = time.Local
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLiteBackend{db: db, loc: loc}, nil
}

// Load implements Backend.
func (b *SQLiteBackend) Load(ctx context.Context, day string) (map[string]model.Entry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT roll, status, timestamp FROM attendance WHERE day = ?`, day)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.Entry)
	for rows.Next() {
		var roll, status, ts string
		if err := rows.Scan(&roll, &status, &ts); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptLedger, roll, err)
		}
		at, err := time.ParseInLocation(TimestampLayout, ts, b.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptLedger, roll, err)
		}
		out[roll] = model.Entry{SubjectID: roll, Status: st, ObservedAt: at}
	}
	return out, rows.Err()
}

// Replace implements Backend.
func (b *SQLiteBackend) Replace(ctx context.Context, day string, entries []model.Entry) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE day = ?`, day); err != nil {
		return fmt.Errorf("clear day: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO attendance (day, roll, status, timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, day, e.SubjectID, string(e.Status), e.ObservedAt.In(b.loc).Format(TimestampLayout)); err != nil {
			return fmt.Errorf("insert %s: %w", e.SubjectID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
