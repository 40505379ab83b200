// Package errors provides structured error types for storekit.
//
// Errors carry a machine-readable [Code] so callers (the CLI, the mock
// backend, UI layers) can react to the class of failure without string
// matching:
//
//   - INVALID_*: input validation failures
//   - NOT_FOUND: the storefront has no such resource
//   - CONFLICT / ALREADY_EXISTS: duplicate adds (wishlist, compare)
//   - UNAUTHORIZED / FORBIDDEN: missing or rejected customer token
//   - NETWORK_ERROR / TIMEOUT / RATE_LIMITED: transport problems
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCompareFull, "maximum %d items can be compared", 4)
//	if errors.Is(err, errors.ErrCodeCompareFull) {
//	    // tell the shopper to remove something first
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "load cart")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidID       Code = "INVALID_ID"
	ErrCodeInvalidQuantity Code = "INVALID_QUANTITY"
	ErrCodeInvalidLocale   Code = "INVALID_LOCALE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource state errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeConflict      Code = "CONFLICT"
	ErrCodeAlreadyExists Code = "ALREADY_EXISTS"
	ErrCodeCompareFull   Code = "COMPARE_FULL"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CodeForStatus maps an HTTP status code from the storefront API to the
// closest error code. Unknown 4xx statuses map to ErrCodeInvalidInput and
// everything else to ErrCodeNetwork.
func CodeForStatus(status int) Code {
	switch {
	case status == 401:
		return ErrCodeUnauthorized
	case status == 403:
		return ErrCodeForbidden
	case status == 404:
		return ErrCodeNotFound
	case status == 409:
		return ErrCodeConflict
	case status == 429:
		return ErrCodeRateLimited
	case status == 408 || status == 504:
		return ErrCodeTimeout
	case status >= 400 && status < 500:
		return ErrCodeInvalidInput
	default:
		return ErrCodeNetwork
	}
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
