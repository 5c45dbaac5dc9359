// Package errs defines the distinct error kinds the storage and execution layers
// raise. Each kind is its own type satisfying the error interface so callers can
// match on it with errors.As/errors.Is instead of inspecting message text.
package errs

import (
	"errors"
	"fmt"
)

// NoRoomError means a slotted page could not accept a record at the requested size.
// It is always recovered locally: the heap file allocates a new page, the B+Tree
// splits the node.
type NoRoomError struct{ msg string }

func (e *NoRoomError) Error() string { return e.msg }

// NoRoom constructs a NoRoomError.
func NoRoom(format string, args ...any) error {
	return &NoRoomError{msg: fmt.Sprintf(format, args...)}
}

// IsNoRoom reports whether err is (or wraps) a NoRoomError.
func IsNoRoom(err error) bool {
	var e *NoRoomError
	return errors.As(err, &e)
}

// DuplicateKeyError means a unique index rejected an insert because the key already exists.
type DuplicateKeyError struct{ msg string }

func (e *DuplicateKeyError) Error() string { return e.msg }

func DuplicateKey(format string, args ...any) error {
	return &DuplicateKeyError{msg: fmt.Sprintf(format, args...)}
}

// NoSuchColumnError means a projection or predicate named a column the relation does not have.
type NoSuchColumnError struct{ msg string }

func (e *NoSuchColumnError) Error() string { return e.msg }

func NoSuchColumn(format string, args ...any) error {
	return &NoSuchColumnError{msg: fmt.Sprintf(format, args...)}
}

// NoSuchTableError means a statement named a table the catalog does not know about.
type NoSuchTableError struct{ msg string }

func (e *NoSuchTableError) Error() string { return e.msg }

func NoSuchTable(format string, args ...any) error {
	return &NoSuchTableError{msg: fmt.Sprintf(format, args...)}
}

// NoSuchIndexError means a statement named an index the catalog does not know about.
type NoSuchIndexError struct{ msg string }

func (e *NoSuchIndexError) Error() string { return e.msg }

func NoSuchIndex(format string, args ...any) error {
	return &NoSuchIndexError{msg: fmt.Sprintf(format, args...)}
}

// SchemaViolationError means an operation violated a schema-level rule: dropping a
// catalog table, creating a non-unique B+Tree, redefining an existing table, etc.
type SchemaViolationError struct{ msg string }

func (e *SchemaViolationError) Error() string { return e.msg }

func SchemaViolation(format string, args ...any) error {
	return &SchemaViolationError{msg: fmt.Sprintf(format, args...)}
}

// UnsupportedTypeError means a data type outside {INT, TEXT, BOOLEAN} was requested.
type UnsupportedTypeError struct{ msg string }

func (e *UnsupportedTypeError) Error() string { return e.msg }

func UnsupportedType(format string, args ...any) error {
	return &UnsupportedTypeError{msg: fmt.Sprintf(format, args...)}
}

// CorruptionError means an on-disk layout invariant was violated. Fatal and surfaced.
type CorruptionError struct{ msg string }

func (e *CorruptionError) Error() string { return e.msg }

func Corruption(format string, args ...any) error {
	return &CorruptionError{msg: fmt.Sprintf(format, args...)}
}

// StoreFailureError wraps an error from the underlying block store.
type StoreFailureError struct {
	msg string
	err error
}

func (e *StoreFailureError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *StoreFailureError) Unwrap() error { return e.err }

func StoreFailure(err error, format string, args ...any) error {
	return &StoreFailureError{msg: fmt.Sprintf(format, args...), err: err}
}

// InvalidPlanError means an evaluation plan was evaluated without a projection at its root.
type InvalidPlanError struct{ msg string }

func (e *InvalidPlanError) Error() string { return e.msg }

func InvalidPlan(format string, args ...any) error {
	return &InvalidPlanError{msg: fmt.Sprintf(format, args...)}
}

// NotImplementedError marks an operation that is intentionally left unimplemented
// (row update, B+Tree delete/range scan).
type NotImplementedError struct{ msg string }

func (e *NotImplementedError) Error() string { return e.msg }

func NotImplemented(format string, args ...any) error {
	return &NotImplementedError{msg: fmt.Sprintf(format, args...)}
}

// IsNotImplemented reports whether err is (or wraps) a NotImplementedError.
func IsNotImplemented(err error) bool {
	var e *NotImplementedError
	return errors.As(err, &e)
}

// SQLExecError is the error type surfaced at the executor boundary. Every error kind
// above except NoRoom (always recovered locally before reaching the executor) is
// converted into one of these, carrying the original error for errors.Unwrap/As.
type SQLExecError struct {
	msg string
	err error
}

func (e *SQLExecError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *SQLExecError) Unwrap() error { return e.err }

// SQLExec wraps err (which may be nil) as the boundary error the executor returns.
func SQLExec(err error, format string, args ...any) error {
	return &SQLExecError{msg: fmt.Sprintf(format, args...), err: err}
}
