// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("uniqueness conflict")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// Operation errors
	ErrInvalidOperation = errors.New("operation not allowed for this entity")
	ErrPermission       = errors.New("role is not permitted to write this field")
	ErrPartialFailure   = errors.New("operation partially failed")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "week", "note", "profile"
	Op      string // Operation that failed, e.g., "Complete", "Reassign"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Profile domain errors
var (
	ErrProfileNotFound = NewDomainError("profile", "Find", ErrNotFound, "student profile not found")
	ErrInvalidLevel    = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid CEFR level")
)

// Week ledger domain errors
var (
	ErrWeekNotFound      = NewDomainError("week", "Find", ErrNotFound, "week not found")
	ErrWeekNumberTaken   = NewDomainError("week", "Create", ErrConflict, "week number already exists for this student")
	ErrInvalidWeekNumber = NewDomainError("week", "Validate", ErrInvalidInput, "week number must be positive")
	ErrNotSpecialWeek    = NewDomainError("week", "Delete", ErrInvalidOperation, "regular weeks cannot be deleted directly")
)

// Daily note domain errors
var (
	ErrNoteNotFound     = NewDomainError("note", "Find", ErrNotFound, "daily note not found")
	ErrInvalidDayType   = NewDomainError("note", "Validate", ErrInvalidInput, "day type must be tuesday..friday")
	ErrFieldNotAllowed  = NewDomainError("note", "Upsert", ErrPermission, "role may not write this field")
	ErrNoWritableFields = NewDomainError("note", "Upsert", ErrInvalidInput, "no writable fields in request")
)

// Reassignment domain errors
var (
	ErrNoteCopyFailed = NewDomainError("reassign", "CopyNotes", ErrPartialFailure, "note carry-over failed")
)

// External service errors
var (
	ErrBadgeServiceDown = NewDomainError("badge", "Evaluate", ErrServiceUnavailable, "badge evaluator is unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness conflict the caller can retry
// after a fresh read.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidOperation checks if the error rejects the operation itself
// (e.g., deleting a regular week).
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPermission checks if the error is a role/field permission rejection.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsPartialFailure checks if the error marks a best-effort step that failed
// without failing the enclosing operation.
func IsPartialFailure(err error) bool {
	return errors.Is(err, ErrPartialFailure)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue)
}

// IsRetryable checks if the operation can be retried as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConflict)
}
