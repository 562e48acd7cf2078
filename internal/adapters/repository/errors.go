package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrInvalidEntry  = errors.New("invalid ledger entry")
	ErrCorruptLedger = errors.New("corrupt ledger")
	ErrUnknownDriver = errors.New("unknown storage driver")
)
