// Package service provides the attendance service that implements the
// dependencies required by the HTTP API.
//
// The service is the single owner of the ledger for the process lifetime.
// Every producer (manual marks, decoded QR payloads, voice transcripts and
// face matches) is normalized into commands that go through one write path.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/roster"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/faces"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/qr"
	"github.com/okian/rollcall/internal/domain/summary"
	"github.com/okian/rollcall/internal/domain/voice"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Service implements the API dependencies for the attendance ledger.
type Service struct {
	mu sync.RWMutex

	// Core components
	ledger     repository.Store
	backend    repository.Backend
	roster     *roster.Roster
	normalizer *voice.Normalizer

	// Configuration
	storage     string
	dataDir     string
	sqlitePath  string
	rosterFile  string
	strict      bool
	idPrefix    string
	idWidth     int
	corrections []voice.Correction
	now         func() time.Time
	loc         *time.Location

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storage:    repository.DriverFile,
		dataDir:    "data",
		sqlitePath: "data/attendance.db",
		rosterFile: "students.csv",
		idPrefix:   "R",
		idWidth:    3,
		now:        time.Now,
		loc:        time.Local,
		logger:     nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the roster and opens the ledger.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting attendance service...")

	if s.roster == nil {
		r, err := roster.Load(s.rosterFile)
		switch {
		case err == nil:
			s.roster = r
		case errors.Is(err, roster.ErrRosterNotFound) && !s.strict:
			s.logger.Warn(ctx, "roster file not found; dashboard will be empty",
				logger.String("path", s.rosterFile),
			)
			s.roster = roster.New(nil)
		default:
			return fmt.Errorf("start: %w", err)
		}
	}

	backend := s.backend
	if backend == nil {
		b, err := repository.Open(ctx, repository.OpenConfig{
			Driver:     s.storage,
			DataDir:    s.dataDir,
			SQLitePath: s.sqlitePath,
			Location:   s.loc,
		})
		if err != nil {
			return fmt.Errorf("start: open %s ledger: %w", s.storage, err)
		}
		backend = b
	}

	s.ledger = repository.NewLedger(backend,
		repository.WithClock(s.now),
		repository.WithLocation(s.loc),
		repository.WithLogger(s.logger.Named("ledger")),
	)
	s.normalizer = voice.New(
		voice.WithCorrections(s.corrections),
		voice.WithIdentifierFormat(s.idPrefix, s.idWidth),
	)

	metrics.UpdateRosterSize(s.roster.Len())

	s.started = true
	s.logger.Info(ctx, "attendance service started",
		logger.String("storage", s.storage),
		logger.Int("rosterSize", s.roster.Len()),
		logger.Bool("strictRoster", s.strict),
	)

	return nil
}

// Stop closes the ledger.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping attendance service...")

	if err := s.ledger.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing ledger", logger.Error(err))
	}

	s.started = false
	s.logger.Info(context.Background(), "attendance service stopped")
}

func (s *Service) current() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.ledger, nil
}

// Mark records a manual status for id.
func (s *Service) Mark(ctx context.Context, id string, status model.Status) (model.Outcome, error) {
	if !status.Valid() {
		return model.Outcome{}, s.reject(ctx, model.SourceManual,
			model.Reject(fmt.Sprintf("unknown status %q", status), id))
	}
	if strings.TrimSpace(id) == "" {
		return model.Outcome{}, s.reject(ctx, model.SourceManual, model.Reject("no subject id given", id))
	}
	return s.apply(ctx, model.Command{SubjectID: strings.TrimSpace(id), Status: status, Source: model.SourceManual}, id)
}

// ApplyDecoded marks the subject named by a decoded QR payload Present.
func (s *Service) ApplyDecoded(ctx context.Context, payload string) (model.Outcome, error) {
	cmd, err := qr.Resolve(payload)
	if err != nil {
		return model.Outcome{}, s.reject(ctx, model.SourceQR, err)
	}
	return s.apply(ctx, cmd, payload)
}

// ApplyTranscript normalizes a spoken command and applies it.
func (s *Service) ApplyTranscript(ctx context.Context, transcript string) (model.Outcome, error) {
	if _, err := s.current(); err != nil {
		return model.Outcome{}, err
	}
	cmd, err := s.normalizer.Normalize(transcript)
	if err != nil {
		return model.Outcome{}, s.reject(ctx, model.SourceVoice, err)
	}
	return s.apply(ctx, cmd, transcript)
}

// ApplyMatches marks Present every distinct subject recognized in one photo.
// It returns the outcomes applied before any failure.
func (s *Service) ApplyMatches(ctx context.Context, detections []model.Detection) ([]model.Outcome, error) {
	if _, err := s.current(); err != nil {
		return nil, err
	}

	// One seen set per photo; it ends up holding exactly the committed ids.
	seen := dedupe.NewInMemoryDeduper()
	cmds := faces.ResolveInto(ctx, seen, detections)
	candidates := 0
	for _, d := range detections {
		if len(d) > 0 && strings.TrimSpace(d[0].SubjectID) != "" {
			candidates++
		}
	}
	metrics.RecordFaceDuplicates(candidates - int(seen.Size()))

	if s.strict {
		known := cmds[:0]
		for _, c := range cmds {
			if s.roster.Contains(c.SubjectID) {
				known = append(known, c)
				continue
			}
			seen.Unrecord(ctx, c.SubjectID)
			s.logger.Debug(ctx, "skipping match outside roster", logger.String("subject_id", c.SubjectID))
		}
		cmds = known
	}

	if len(cmds) == 0 {
		return nil, s.reject(ctx, model.SourceFaces, model.Reject("no known subjects recognized", ""))
	}

	outcomes := make([]model.Outcome, 0, len(cmds))
	for i, c := range cmds {
		o, err := s.apply(ctx, c, c.SubjectID)
		if err != nil {
			for _, rest := range cmds[i:] {
				seen.Unrecord(ctx, rest.SubjectID)
			}
			s.logger.Warn(ctx, "photo partially applied",
				logger.Any("marked", seen.Seen()),
				logger.Int("pending", len(cmds)-i),
				logger.Error(err),
			)
			return outcomes, err
		}
		outcomes = append(outcomes, o)
	}
	s.logger.Info(ctx, "photo applied",
		logger.Int("detections", len(detections)),
		logger.Any("marked", seen.Seen()),
	)
	return outcomes, nil
}

func (s *Service) apply(ctx context.Context, cmd model.Command, raw string) (model.Outcome, error) {
	ledger, err := s.current()
	if err != nil {
		return model.Outcome{}, err
	}

	subject, enrolled := s.enrolled(cmd.SubjectID)
	if s.strict && !enrolled {
		return model.Outcome{}, s.reject(ctx, cmd.Source,
			model.Ambiguous(fmt.Sprintf("subject %s is not on the roster", cmd.SubjectID), raw))
	}

	w, err := ledger.Record(ctx, cmd.SubjectID, cmd.Status)
	if err != nil {
		s.logger.Error(ctx, "failed to apply command",
			logger.String("subject_id", cmd.SubjectID),
			logger.String("status", string(cmd.Status)),
			logger.String("source", string(cmd.Source)),
			logger.Error(err),
		)
		return model.Outcome{}, err
	}

	metrics.RecordCommandApplied(string(cmd.Source), string(cmd.Status))
	s.logger.Info(ctx, "attendance recorded",
		logger.String("subject_id", cmd.SubjectID),
		logger.String("status", string(cmd.Status)),
		logger.String("source", string(cmd.Source)),
		logger.String("previous", string(w.Previous)),
	)

	return model.Outcome{
		SubjectID:  w.Entry.SubjectID,
		Name:       subject.Name,
		Status:     w.Entry.Status,
		Source:     cmd.Source,
		Previous:   w.Previous,
		Replaced:   w.Replaced,
		ObservedAt: w.Entry.ObservedAt.In(ledger.Location()),
	}, nil
}

func (s *Service) enrolled(id string) (model.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Lookup(id)
}

func (s *Service) reject(ctx context.Context, source model.Source, err error) error {
	kind := "input_rejected"
	if errors.Is(err, model.ErrAmbiguousCommand) {
		kind = "ambiguous"
	}
	metrics.RecordCommandRejected(string(source), kind)
	s.log().Warn(ctx, "command rejected",
		logger.String("source", string(source)),
		logger.String("kind", kind),
		logger.Error(err),
	)
	return err
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// Snapshot returns today's ledger entries ordered by subject id.
func (s *Service) Snapshot(ctx context.Context) ([]model.Entry, error) {
	ledger, err := s.current()
	if err != nil {
		return nil, err
	}
	return ledger.Snapshot(ctx)
}

// Roster returns the tracked subjects in roster order.
func (s *Service) Roster(_ context.Context) []model.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roster.Subjects()
}

// Summary counts today's attendance over the roster.
func (s *Service) Summary(ctx context.Context) (summary.Summary, error) {
	report, err := s.Attendance(ctx)
	if err != nil {
		return summary.Summary{}, err
	}
	return report.Summary, nil
}

// Attendance joins the roster with today's ledger.
func (s *Service) Attendance(ctx context.Context) (summary.Report, error) {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return summary.Report{}, err
	}
	report := summary.Build(s.Roster(ctx), entries)
	metrics.UpdatePresentToday(report.Summary.Present)
	return report, nil
}

// Today returns the calendar day the ledger currently targets.
func (s *Service) Today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// ExportCSV writes today's ledger to w in its persisted form and returns the
// file name it is stored under.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) (string, error) {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ErrNoAttendance
	}
	if err := repository.EncodeCSV(w, entries, s.loc); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return repository.FileName(repository.DayKey(s.now(), s.loc)), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	stats := map[string]interface{}{
		"started":      s.started,
		"storage":      s.storage,
		"strictRoster": s.strict,
		"rosterSize":   s.roster.Len(),
		"day":          s.Today().Format(repository.DayLayout),
	}
	s.mu.RUnlock()

	if started {
		report, err := s.Attendance(context.Background())
		if err != nil {
			stats["error"] = err.Error()
			return stats
		}
		recorded := 0
		for _, row := range report.Rows {
			if row.Recorded {
				recorded++
			}
		}
		stats["present"] = report.Summary.Present
		stats["absent"] = report.Summary.Absent
		stats["recorded"] = recorded
	}

	return stats
}
