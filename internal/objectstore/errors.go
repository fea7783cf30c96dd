// Package objectstore provides photo blob storage behind interchangeable backends
package objectstore

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific object storage error types
type ErrorCode int

const (
	// ErrUnknown represents an unknown error
	ErrUnknown ErrorCode = iota
	// ErrWrite represents a failed write (disk full, network error, permission denied)
	ErrWrite
	// ErrNotFound represents a missing object
	ErrNotFound
	// ErrUnavailable represents an unreachable backend
	ErrUnavailable
	// ErrTimeout represents an operation timeout
	ErrTimeout
	// ErrCanceled represents a canceled operation
	ErrCanceled
	// ErrValidation represents an invalid key or configuration
	ErrValidation
)

// Error represents an object storage operation error
type Error struct {
	Code    ErrorCode // Error classification
	Message string    // Human-readable error message
	Err     error     // Original error if any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new object storage error
func NewError(code ErrorCode, message string, err error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsErrorCode checks if an error is an objectstore error with the specified code
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound checks if an error indicates a missing object
func IsNotFound(err error) bool {
	return IsErrorCode(err, ErrNotFound)
}

// IsUnavailable checks if an error indicates an unreachable backend.
// Timeouts count as unavailable: the caller cannot tell the difference.
func IsUnavailable(err error) bool {
	return IsErrorCode(err, ErrUnavailable) || IsErrorCode(err, ErrTimeout)
}

// IsWriteError checks if an error is a failed backend write
func IsWriteError(err error) bool {
	return IsErrorCode(err, ErrWrite)
}

// IsValidationError checks if an error is a key or configuration validation error
func IsValidationError(err error) bool {
	return IsErrorCode(err, ErrValidation)
}
