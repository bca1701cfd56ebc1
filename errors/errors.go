// Package errors provides error types and handling for treesync operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a treesync operation error with context about the operation
// that failed. It wraps the underlying error with the store and path involved
// for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "sync", "discover", "upload")
	Op string

	// StoreID is the remote store identifier (if applicable)
	StoreID string

	// Path is the local file or directory path involved (if applicable)
	Path string

	// Err is the underlying error from the store, the filesystem, or another source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.StoreID != "" && e.Path != "" {
		return fmt.Sprintf("treesync.%s %s %s: %v", e.Op, e.StoreID, e.Path, e.Err)
	}
	if e.StoreID != "" {
		return fmt.Sprintf("treesync.%s store %s: %v", e.Op, e.StoreID, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("treesync.%s path %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("treesync.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithStoreID adds store context to an existing error.
func (e *Error) WithStoreID(storeID string) *Error {
	e.StoreID = storeID
	return e
}

// WithPath adds path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewPathError creates a new Error with path context.
func NewPathError(op, path string, err error) *Error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// NewValidationError creates an Error wrapping ErrInvalidInput with a message
// describing which input was rejected.
func NewValidationError(op, message string) *Error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%s: %w", message, ErrInvalidInput),
	}
}

// NewConfigError creates an Error wrapping ErrInvalidConfig with a message
// describing the rejected configuration value.
func NewConfigError(op, message string) *Error {
	return &Error{
		Op:  op,
		Err: fmt.Errorf("%s: %w", message, ErrInvalidConfig),
	}
}

// Sentinel errors for common treesync operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that a provided argument is invalid
	ErrInvalidInput = errors.New("treesync: invalid input")

	// ErrInvalidConfig indicates that the configuration is invalid; sync calls
	// reject it before any work is scheduled
	ErrInvalidConfig = errors.New("treesync: invalid configuration")

	// ErrStoreUnavailable indicates that the remote store could not be reached
	ErrStoreUnavailable = errors.New("treesync: store unavailable")

	// ErrRecordNotFound indicates that the requested remote record does not exist
	ErrRecordNotFound = errors.New("treesync: record not found")

	// ErrRecordExists indicates that a record already exists and overwrite was not requested
	ErrRecordExists = errors.New("treesync: record already exists")

	// ErrNotImplemented indicates that the requested feature is not implemented
	ErrNotImplemented = errors.New("treesync: not implemented")
)

// IsInvalidInput checks if an error indicates invalid input.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidConfig checks if an error indicates invalid configuration.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsStoreUnavailable checks if an error indicates the store could not be reached.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsRecordNotFound checks if an error indicates that a remote record was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
