package service

import (
	"fmt"

	"github.com/okian/rollcall/internal/domain/model"
)

var (
	// ErrNotStarted is returned by operations invoked before Start.
	ErrNotStarted = fmt.Errorf("service not started: %w", model.ErrUnavailable)
	// ErrNoAttendance is returned by ExportCSV when today's ledger is empty.
	ErrNoAttendance = fmt.Errorf("no attendance recorded today: %w", model.ErrNotFound)
)
