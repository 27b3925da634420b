package tally

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a command references an entity that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrReserved is returned when a command tries to modify or delete a reserved entity.
	ErrReserved = errors.New("reserved entity")
	// ErrCycle is returned when a category would become its own ancestor.
	ErrCycle = errors.New("category hierarchy cycle")
	// ErrInvalid is returned when a command carries an invalid value.
	ErrInvalid = errors.New("invalid value")
	// ErrFutureDate is returned for transactions dated after the current month.
	ErrFutureDate = errors.New("date after the current month")
	// ErrInUse is returned when an entity cannot be deleted without a replacement.
	ErrInUse = errors.New("entity in use")
)

// ReferenceError reports a reference to a missing entity.
type ReferenceError struct {
	Kind string // "account", "category", ...
	ID   ID
}

func (e *ReferenceError) Error() string { return fmt.Sprintf("unknown %s %d", e.Kind, e.ID) }
func (e *ReferenceError) Unwrap() error { return ErrNotFound }

// ValidationError reports an invalid field value.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // one of the package sentinel errors, defaults to ErrInvalid
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason) }

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalid
	}
	return e.Err
}

// RecordError locates a failure in a batch of imported records.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }
func (e *RecordError) Unwrap() error { return e.Err }

// DocumentError locates a failure in a decoded state document.
type DocumentError struct {
	Path string // e.g. "transactions[12]"
	Err  error
}

func (e *DocumentError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *DocumentError) Unwrap() error { return e.Err }

func missing(kind string, id ID) error { return &ReferenceError{Kind: kind, ID: id} }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
