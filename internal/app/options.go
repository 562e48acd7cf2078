package service

import (
	"time"

	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/roster"
	"github.com/okian/rollcall/internal/domain/voice"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorage selects the ledger backend driver opened by Start.
func WithStorage(driver string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storage = driver
		}
	}
}

// WithDataDir sets the directory of the file backend.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithSQLitePath sets the database file of the sqlite backend.
func WithSQLitePath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.sqlitePath = path
		}
	}
}

// WithBackend injects a ready backend, bypassing the storage driver.
func WithBackend(b repository.Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}

// WithRosterFile sets the roster CSV loaded by Start.
func WithRosterFile(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.rosterFile = path
		}
	}
}

// WithRoster injects an already loaded roster.
func WithRoster(r *roster.Roster) Option {
	return func(s *Service) {
		s.roster = r
	}
}

// WithStrictRoster rejects commands for subjects missing from the roster.
func WithStrictRoster(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithIdentifierFormat sets the spoken identifier prefix and digit width.
func WithIdentifierFormat(prefix string, width int) Option {
	return func(s *Service) {
		s.idPrefix = prefix
		s.idWidth = width
	}
}

// WithCorrections replaces the transcript substitution table.
func WithCorrections(table []voice.Correction) Option {
	return func(s *Service) {
		s.corrections = table
	}
}

// WithClock sets the time source for write times and the current day.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}
