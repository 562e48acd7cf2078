// Package summary composes read-side views over a ledger snapshot.
// Nothing here mutates the ledger.
package summary

import (
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// Summary counts today's attendance over a roster.
type Summary struct {
	Total   int
	Present int
	Absent  int
}

// Row is one roster member joined with its ledger entry, if any.
type Row struct {
	Subject    model.Subject
	Status     model.Status
	ObservedAt time.Time // zero when Recorded is false
	Recorded   bool
}

// Report bundles the summary and the joined rows for display.
type Report struct {
	Summary Summary
	Rows    []Row
}

// TodaySummary counts roster members whose snapshot status is Present.
// Members missing from the snapshot count as Absent; snapshot entries for
// ids outside the roster are ignored.
func TodaySummary(roster []model.Subject, snapshot []model.Entry) Summary {
	byID := index(snapshot)
	s := Summary{Total: len(roster)}
	for _, subj := range roster {
		if e, ok := byID[subj.ID]; ok && e.Status == model.StatusPresent {
			s.Present++
		}
	}
	s.Absent = s.Total - s.Present
	return s
}

// Join returns one row per roster member in roster order.
func Join(roster []model.Subject, snapshot []model.Entry) []Row {
	byID := index(snapshot)
	rows := make([]Row, 0, len(roster))
	for _, subj := range roster {
		row := Row{Subject: subj, Status: model.StatusAbsent}
		if e, ok := byID[subj.ID]; ok {
			row.Status = e.Status
			row.ObservedAt = e.ObservedAt
			row.Recorded = true
		}
		rows = append(rows, row)
	}
	return rows
}

// Build returns the summary and joined rows together.
func Build(roster []model.Subject, snapshot []model.Entry) Report {
	return Report{Summary: TodaySummary(roster, snapshot), Rows: Join(roster, snapshot)}
}

func index(snapshot []model.Entry) map[string]model.Entry {
	byID := make(map[string]model.Entry, len(snapshot))
	for _, e := range snapshot {
		byID[e.SubjectID] = e
	}
	return byID
}
