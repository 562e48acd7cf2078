// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the presence status recorded for a subject on one day.
type Status string

// Recognised statuses. The string values are the persisted form.
const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Valid reports whether s is one of the recognised statuses.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// ParseStatus accepts the persisted form case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present":
		return StatusPresent, nil
	case "absent":
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, raw)
}

// Source names the producer a command came from.
type Source string

// Known producers.
const (
	SourceManual Source = "manual"
	SourceQR     Source = "qr"
	SourceVoice  Source = "voice"
	SourceFaces  Source = "faces"
)

// Subject is a roster member. The roster is owned externally.
type Subject struct {
	ID   string
	Name string
}

// Entry is the single current ledger record for a subject on a day.
type Entry struct {
	SubjectID  string
	Status     Status
	ObservedAt time.Time // time of the write that produced this value
}

// Command is a validated (subject, status) pair ready to be applied.
// Commands are never persisted directly.
type Command struct {
	SubjectID string
	Status    Status
	Source    Source
}

// MatchCandidate is one ranked similarity match for a detected face.
type MatchCandidate struct {
	DetectionIndex int
	SubjectID      string
	Confidence     float64
}

// Detection holds the candidates for one detected face, best first.
type Detection []MatchCandidate

// Outcome describes a command that was applied to the ledger.
type Outcome struct {
	SubjectID string
	// Name is the roster name of the subject; empty when it is not enrolled.
	Name   string
	Status Status
	Source Source
	// Previous is the status replaced by this write; empty when Replaced is false.
	Previous   Status
	Replaced   bool
	ObservedAt time.Time
}
