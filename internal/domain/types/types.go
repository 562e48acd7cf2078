// Package types contains the JSON shapes exchanged over the HTTP API
package types

import (
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/faces"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/summary"
)

// TimestampLayout is the wire form of entry timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// ScanQRRequest carries the payload produced by the external image decoder.
type ScanQRRequest struct {
	Data string `json:"data"`
}

// VoiceRequest carries the transcript produced by the external recognizer.
// An empty transcript stands for a recognition timeout.
type VoiceRequest struct {
	Transcript string `json:"transcript"`
}

// Candidate is one ranked match for a detected face. Identity is a gallery
// path such as "students/R001.jpg" and is used when SubjectID is empty.
type Candidate struct {
	SubjectID  string  `json:"subject_id,omitempty"`
	Identity   string  `json:"identity,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ScanFacesRequest lists the ranked candidates of every face in one photo.
type ScanFacesRequest struct {
	Detections [][]Candidate `json:"detections"`
}

// ModelDetections converts the request into domain detections.
func (r ScanFacesRequest) ModelDetections() []model.Detection {
	out := make([]model.Detection, 0, len(r.Detections))
	for i, cands := range r.Detections {
		d := make(model.Detection, 0, len(cands))
		for _, c := range cands {
			id := strings.TrimSpace(c.SubjectID)
			if id == "" {
				id = faces.SubjectFromIdentity(c.Identity)
			}
			d = append(d, model.MatchCandidate{DetectionIndex: i, SubjectID: id, Confidence: c.Confidence})
		}
		out = append(out, d)
	}
	return out
}

// MarkResponse reports one applied command.
type MarkResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	Previous  string `json:"previous,omitempty"`
	Replaced  bool   `json:"replaced"`
	Timestamp string `json:"timestamp"`
}

// FromOutcome builds the response for an applied command.
func FromOutcome(o model.Outcome, message string) MarkResponse {
	return MarkResponse{
		Success:   true,
		Message:   message,
		SubjectID: o.SubjectID,
		Name:      o.Name,
		Status:    string(o.Status),
		Source:    string(o.Source),
		Previous:  string(o.Previous),
		Replaced:  o.Replaced,
		Timestamp: formatTime(o.ObservedAt),
	}
}

// ScanFacesResponse reports the subjects marked from one photo.
type ScanFacesResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Marked  []MarkResponse `json:"marked"`
}

// ErrorResponse is returned for rejected input and failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
	// Marked lists the subjects committed before a photo failed midway.
	Marked []MarkResponse `json:"marked,omitempty"`
}

// LedgerEntry is one persisted entry.
type LedgerEntry struct {
	SubjectID string `json:"roll"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// FromEntries converts a snapshot.
func FromEntries(entries []model.Entry) []LedgerEntry {
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntry{SubjectID: e.SubjectID, Status: string(e.Status), Timestamp: formatTime(e.ObservedAt)})
	}
	return out
}

// DashboardRow is one roster member with today's status.
type DashboardRow struct {
	SubjectID string `json:"roll"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Dashboard is today's summary plus the joined roster.
type Dashboard struct {
	Date    string         `json:"date"`
	Total   int            `json:"total"`
	Present int            `json:"present"`
	Absent  int            `json:"absent"`
	Rows    []DashboardRow `json:"rows"`
}

// FromReport converts a summary report for day.
func FromReport(day time.Time, r summary.Report) Dashboard {
	d := Dashboard{
		Date:    day.Format("2006-01-02"),
		Total:   r.Summary.Total,
		Present: r.Summary.Present,
		Absent:  r.Summary.Absent,
		Rows:    make([]DashboardRow, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		dr := DashboardRow{SubjectID: row.Subject.ID, Name: row.Subject.Name, Status: string(row.Status)}
		if row.Recorded {
			dr.Timestamp = formatTime(row.ObservedAt)
		}
		d.Rows = append(d.Rows, dr)
	}
	return d
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
