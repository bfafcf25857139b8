package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"  // invalid input or broken precondition
	ErrCatState       ErrorCategory = "state"       // store corruption or conflict
	ErrCatPersistence ErrorCategory = "persistence" // flush/save failure
	ErrCatNotFound    ErrorCategory = "not_found"   // direct-by-identity lookup miss
	ErrCatInternal    ErrorCategory = "internal"    // unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on category and code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// Predefined error codes.
const (
	CodeInvalidReorder   = "INVALID_REORDER"
	CodeInvalidDay       = "INVALID_DAY"
	CodeDuplicateRoutine = "DUPLICATE_ROUTINE"
	CodeFlushFailed      = "FLUSH_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeMigrationFailed  = "MIGRATION_FAILED"
)

// ErrInvalidReorder reports a reorder argument that is not a permutation of
// the current siblings.
func ErrInvalidReorder(message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: CodeInvalidReorder, Message: message}
}

// ErrInvalidDay reports a weekday outside 0..6.
func ErrInvalidDay(day int) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     CodeInvalidDay,
		Message:  fmt.Sprintf("day %d outside 0..%d", day, DaysPerWeek-1),
	}
}

// ErrDuplicateRoutine reports a second canonical routine for one day. Normal
// mutation paths never produce it; only the creation race repaired by the
// reconciler can.
func ErrDuplicateRoutine(day int) *DomainError {
	return &DomainError{
		Category: ErrCatState,
		Code:     CodeDuplicateRoutine,
		Message:  fmt.Sprintf("more than one routine for day %d", day),
	}
}

// ErrFlush reports a persistence flush failure.
func ErrFlush(cause error) *DomainError {
	return &DomainError{
		Category: ErrCatPersistence,
		Code:     CodeFlushFailed,
		Message:  "persisting workout data",
		Cause:    cause,
	}
}

// ErrNotFound creates a not found error for a direct-by-identity lookup.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrMigration reports a failed migration run with a human-readable reason.
func ErrMigration(reason string, cause error) *DomainError {
	return &DomainError{
		Category: ErrCatPersistence,
		Code:     CodeMigrationFailed,
		Message:  reason,
		Cause:    cause,
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}
