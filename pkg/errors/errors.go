// Package errors provides dotty's structured error type. Every fatal
// failure carries a stable code so tests and callers can match on the
// category rather than on message text.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown  ErrorCode = "UNKNOWN"
	ErrInternal ErrorCode = "INTERNAL"

	// Configuration errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrRootMissing   ErrorCode = "ROOT_MISSING"

	// Descriptor errors
	ErrDescriptorRead  ErrorCode = "DESCRIPTOR_READ"
	ErrDescriptorEval  ErrorCode = "DESCRIPTOR_EVAL"
	ErrDescriptorType  ErrorCode = "DESCRIPTOR_TYPE"
	ErrRenameInvalid   ErrorCode = "RENAME_INVALID"
	ErrTransformFailed ErrorCode = "TRANSFORM_FAILED"

	// Filesystem errors
	ErrFileRead      ErrorCode = "FILE_READ"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrDirRead       ErrorCode = "DIR_READ"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrRemove        ErrorCode = "REMOVE"
)

// DottyError represents a structured error with code and details
type DottyError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DottyError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DottyError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DottyError) Is(target error) bool {
	var targetErr *DottyError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DottyError with the given code and message
func New(code ErrorCode, message string) *DottyError {
	return &DottyError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DottyError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DottyError {
	return &DottyError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DottyError
func Wrap(err error, code ErrorCode, message string) *DottyError {
	if err == nil {
		return nil
	}
	return &DottyError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DottyError {
	if err == nil {
		return nil
	}
	return &DottyError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DottyError) WithDetail(key string, value interface{}) *DottyError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dottyErr *DottyError
	if errors.As(err, &dottyErr) {
		return dottyErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if
// the error is not a DottyError
func GetErrorCode(err error) ErrorCode {
	var dottyErr *DottyError
	if errors.As(err, &dottyErr) {
		return dottyErr.Code
	}
	return ErrUnknown
}
