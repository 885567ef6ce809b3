package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the target record does not exist,
	// typically because a concurrent caller deleted it.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStorageFault indicates the storage engine failed to apply the
	// operation. Nothing from the operation was committed.
	ErrCodeStorageFault ErrorCode = "STORAGE_FAULT"

	// ErrCodeDuplicate indicates a caller-assigned id is already taken.
	ErrCodeDuplicate ErrorCode = "DUPLICATE"

	// ErrCodeReserved indicates the operation targets the reserved
	// uncategorized id in a way the store does not permit.
	ErrCodeReserved ErrorCode = "RESERVED"
)

// Error is returned by every Store operation that fails.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation, e.g. "append message".
	Op string

	// ID is the record id the operation targeted, if any.
	ID string

	// Err is the underlying cause (storage faults only).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		fmt.Fprintf(&b, " %q", e.ID)
	}
	fmt.Fprintf(&b, ": %s", e.Code)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFound(op, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Op: op, ID: id}
}

func duplicate(op, id string) *Error {
	return &Error{Code: ErrCodeDuplicate, Op: op, ID: id}
}

func reserved(op, id string) *Error {
	return &Error{Code: ErrCodeReserved, Op: op, ID: id}
}

// storageFault wraps err as a storage fault unless it already is a store Error.
func storageFault(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Code: ErrCodeStorageFault, Op: op, Err: err}
}

// CodeOf returns the code of a store Error, or "" if err is not one.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND store error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsStorageFault reports whether err is a STORAGE_FAULT store error.
func IsStorageFault(err error) bool {
	return CodeOf(err) == ErrCodeStorageFault
}

// IsDuplicate reports whether err is a DUPLICATE store error.
func IsDuplicate(err error) bool {
	return CodeOf(err) == ErrCodeDuplicate
}

// IsReserved reports whether err is a RESERVED store error.
func IsReserved(err error) bool {
	return CodeOf(err) == ErrCodeReserved
}

// isConstraintViolation checks if err is a SQLite UNIQUE constraint violation.
// Both drivers report the SQLite message text, so matching on it avoids
// importing either driver's error type.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
