// Package roster loads the externally provisioned subject list.
//
// The roster file is a CSV with a header row naming at least the columns
// "roll" and "name". It is read once per process and never written.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/rollcall/internal/domain/model"
)

var (
	// ErrRosterNotFound is returned when the roster file does not exist.
	ErrRosterNotFound = errors.New("roster not found")
	// ErrInvalidRoster is returned for a roster file that cannot be parsed.
	ErrInvalidRoster = errors.New("invalid roster")
)

// Roster is an immutable, ordered set of subjects.
type Roster struct {
	subjects []model.Subject
	index    map[string]int
}

// New builds a roster from subjects, keeping the first occurrence of a
// repeated id.
func New(subjects []model.Subject) *Roster {
	r := &Roster{index: make(map[string]int, len(subjects))}
	for _, s := range subjects {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			continue
		}
		if _, ok := r.index[s.ID]; ok {
			continue
		}
		r.index[s.ID] = len(r.subjects)
		r.subjects = append(r.subjects, s)
	}
	return r
}

// Load reads the roster CSV at path.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse reads a roster CSV from r.
func Parse(r io.Reader) (*Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidRoster, err)
	}
	rollCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "roll":
			rollCol = i
		case "name":
			nameCol = i
		}
	}
	if rollCol < 0 {
		return nil, fmt.Errorf("%w: missing roll column", ErrInvalidRoster)
	}

	var subjects []model.Subject
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRoster, line, err)
		}
		if rollCol >= len(rec) {
			continue
		}
		s := model.Subject{ID: rec[rollCol]}
		if nameCol >= 0 && nameCol < len(rec) {
			s.Name = strings.TrimSpace(rec[nameCol])
		}
		subjects = append(subjects, s)
	}
	return New(subjects), nil
}

// Contains reports whether id is on the roster.
func (r *Roster) Contains(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.index[id]
	return ok
}

// Lookup returns the subject with id.
func (r *Roster) Lookup(id string) (model.Subject, bool) {
	if r == nil {
		return model.Subject{}, false
	}
	i, ok := r.index[id]
	if !ok {
		return model.Subject{}, false
	}
	return r.subjects[i], true
}

// Subjects returns a copy of the roster in file order.
func (r *Roster) Subjects() []model.Subject {
	if r == nil {
		return nil
	}
	out := make([]model.Subject, len(r.subjects))
	copy(out, r.subjects)
	return out
}

// Len returns the number of subjects.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.subjects)
}
