package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrNotFound is returned by repository lookups that match no row
var ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")

// UniqueViolationError is returned by repositories when a write collides with a
// unique constraint. Field names the violated column when the store reports it.
type UniqueViolationError struct {
	Table string
	Field string
	Err   error
}

// Error implements the error interface
func (e *UniqueViolationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unique constraint violated on %s", e.Table)
	}
	return fmt.Sprintf("unique constraint violated on %s.%s", e.Table, e.Field)
}

// Unwrap returns the underlying driver error
func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// AsUniqueViolation extracts a UniqueViolationError from an error chain
func AsUniqueViolation(err error) (*UniqueViolationError, bool) {
	var uv *UniqueViolationError
	if errors.As(err, &uv) {
		return uv, true
	}
	return nil, false
}

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
