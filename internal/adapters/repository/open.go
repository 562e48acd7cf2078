package repository

import (
	"context"
	"fmt"
	"time"
)

// Storage drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// OpenConfig selects and configures a Backend.
type OpenConfig struct {
	Driver     string
	DataDir    string
	SQLitePath string
	Location   *time.Location
}

// Open builds the Backend named by cfg.Driver.
func Open(ctx context.Context, cfg OpenConfig) (Backend, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileBackend(cfg.DataDir, cfg.Location)
	case DriverSQLite:
		return NewSQLiteBackend(ctx, cfg.SQLitePath, cfg.Location)
	case DriverMemory:
		return NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}
