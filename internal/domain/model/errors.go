package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by the normalizers, the ledger and its callers.
var (
	// ErrInputRejected means no valid command could be derived from producer output.
	ErrInputRejected = errors.New("input rejected")
	// ErrAmbiguousCommand means the input was well-formed but conflicting or unknown.
	ErrAmbiguousCommand = errors.New("ambiguous command")
	// ErrPersistence means the ledger could not commit; the last committed state stands.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidStatus is returned for an unrecognised status string.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrNotFound means a read has nothing to return.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the ledger owner is not serving.
	ErrUnavailable = errors.New("unavailable")
)

// Rejection carries a human-readable diagnostic and the offending raw input.
// It unwraps to its Kind so callers can branch with errors.Is.
type Rejection struct {
	Kind    error
	Message string
	Raw     string
}

func (r *Rejection) Error() string {
	if r.Raw == "" {
		return fmt.Sprintf("%v: %s", r.Kind, r.Message)
	}
	return fmt.Sprintf("%v: %s (input %q)", r.Kind, r.Message, r.Raw)
}

func (r *Rejection) Unwrap() error { return r.Kind }

// Reject builds an ErrInputRejected rejection.
func Reject(message, raw string) *Rejection {
	return &Rejection{Kind: ErrInputRejected, Message: message, Raw: raw}
}

// Ambiguous builds an ErrAmbiguousCommand rejection.
func Ambiguous(message, raw string) *Rejection {
	return &Rejection{Kind: ErrAmbiguousCommand, Message: message, Raw: raw}
}
