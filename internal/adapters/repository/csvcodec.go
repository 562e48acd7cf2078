package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// csvHeader is the persisted column order.
var csvHeader = []string{"timestamp", "roll", "status"}

// EncodeCSV writes entries in the persisted daily ledger layout.
func EncodeCSV(w io.Writer, entries []model.Entry, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		rec := []string{e.ObservedAt.In(loc).Format(TimestampLayout), e.SubjectID, string(e.Status)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", e.SubjectID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV reads a daily ledger. Files written by older append-style
// writers may hold several rows per subject; the last row wins.
func DecodeCSV(r io.Reader, loc *time.Location) (map[string]model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	out := make(map[string]model.Entry)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorruptLedger, err)
	}
	if strings.Join(header, ",") != strings.Join(csvHeader, ",") {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrCorruptLedger, header)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorruptLedger, line, err)
		}
		ts, err := time.ParseInLocation(TimestampLayout, rec[0], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorruptLedger, line, err)
		}
		status, err := model.ParseStatus(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCorruptLedger, line, err)
		}
		out[rec[1]] = model.Entry{SubjectID: rec[1], Status: status, ObservedAt: ts}
	}
}
