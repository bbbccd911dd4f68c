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
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrClosed        ErrorCode = "CLOSED"

	// Configuration errors. ErrConfigInvalid is raised for bad definition
	// options and is never recovered internally.
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Rule errors
	ErrRuleCompile ErrorCode = "RULE_COMPILE"

	// Resource errors
	ErrIO ErrorCode = "IO"

	// Worker errors are delivered through a definition's error event
	ErrWorkerRuntime ErrorCode = "WORKER_RUNTIME"

	// Style sheet errors
	ErrStyleSheet ErrorCode = "STYLESHEET"
)

// PagemodError represents a structured error with code and details
type PagemodError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PagemodError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PagemodError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PagemodError) Is(target error) bool {
	var targetErr *PagemodError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PagemodError with the given code and message
func New(code ErrorCode, message string) *PagemodError {
	return &PagemodError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PagemodError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PagemodError {
	return &PagemodError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PagemodError
func Wrap(err error, code ErrorCode, message string) *PagemodError {
	if err == nil {
		return nil
	}
	return &PagemodError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PagemodError {
	if err == nil {
		return nil
	}
	return &PagemodError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PagemodError) WithDetail(key string, value interface{}) *PagemodError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *PagemodError) WithDetails(details map[string]interface{}) *PagemodError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var pmErr *PagemodError
	if errors.As(err, &pmErr) {
		return pmErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PagemodError
func GetErrorCode(err error) ErrorCode {
	var pmErr *PagemodError
	if errors.As(err, &pmErr) {
		return pmErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a PagemodError
func GetErrorDetails(err error) map[string]interface{} {
	var pmErr *PagemodError
	if errors.As(err, &pmErr) {
		return pmErr.Details
	}
	return nil
}
