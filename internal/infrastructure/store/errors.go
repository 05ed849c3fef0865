package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by single-item operations.
var (
	ErrItemNotFound = errors.New("store: item not found")
	ErrItemExists   = errors.New("store: item already exists")
)

// PreconditionError reports the first write in an atomic batch whose
// guard did not hold. The whole batch is rolled back before it surfaces.
type PreconditionError struct {
	Index int
	PK    string
	SK    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("store: precondition failed for op %d (%s/%s)", e.Index, e.PK, e.SK)
}

// StoreError wraps a transport or driver fault. Callers treat it as
// retriable infrastructure failure, distinct from domain errors.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrapErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
