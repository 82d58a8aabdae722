package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies engine errors so callers can decide how to surface
// them: block the action, offer a retry, or warn and continue.
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a local, synchronous validation failure.
	// It never reaches persistence.
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeSync indicates a remote store call failed. Engine state is
	// left exactly as before the call, so a manual retry is safe.
	ErrorTypeSync ErrorType = "SYNC"

	// ErrorTypeStaleReference indicates a record points at a procedure id
	// that no longer resolves in the catalog. Reported, never dropped.
	ErrorTypeStaleReference ErrorType = "STALE_REFERENCE"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// Refs names the tooth ids or record ids the error applies to, for
	// validation and stale-reference errors.
	Refs []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Refs) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Refs, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, refs ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Refs:    refs,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewSyncError creates a new sync error wrapping the failed store call
func NewSyncError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeSync,
		Message: message,
		Err:     err,
	}
}

// NewStaleReferenceError creates a stale reference error naming the
// offending records
func NewStaleReferenceError(message string, refs ...string) *AppError {
	return &AppError{
		Type:    ErrorTypeStaleReference,
		Message: message,
		Refs:    refs,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
