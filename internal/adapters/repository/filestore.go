package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/okian/rollcall/internal/domain/model"
)

const ledgerFilePerm = 0o644

// FileBackend stores each day as data_dir/attendance_YYYY-MM-DD.csv.
// Replace writes a temporary file next to the target and renames it over the
// canonical path, so a reader opens either the old or the new file.
type FileBackend struct {
	dir string
	loc *time.Location
}

// NewFileBackend creates dir if needed. Timestamps are read and written in loc.
func NewFileBackend(dir string, loc *time.Location) (*FileBackend, error) {
	if loc == nil {
		loc = time.Local
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir, loc: loc}, nil
}

// FileName returns the base name of the ledger file for day.
func FileName(day string) string {
	return "attendance_" + day + ".csv"
}

// Path returns the canonical path of day's ledger.
func (b *FileBackend) Path(day string) string {
	return filepath.Join(b.dir, FileName(day))
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context, day string) (map[string]model.Entry, error) {
	f, err := os.Open(b.Path(day))
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]model.Entry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeCSV(f, b.loc)
}

// Replace implements Backend.
func (b *FileBackend) Replace(_ context.Context, day string, entries []model.Entry) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, entries, b.loc); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := renameio.WriteFile(b.Path(day), buf.Bytes(), ledgerFilePerm); err != nil {
		return fmt.Errorf("swap ledger: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }
