// Package errors provides structured error types for tspstudio.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the solve orchestrator
//   - Machine-readable error codes that drive retry policy
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into three groups:
//   - INVALID_*, NOT_FOUND, INTERNAL_ERROR: generic input and runtime failures
//   - CONNECTIVITY, SUBMIT_REJECTED, SOLVE_FAILED, NO_DATA, RETRIES_EXHAUSTED:
//     remote tour service failures, each handled differently by the orchestrator
//   - LOCAL_SOLVE_FAILED, INADEQUATE_SAMPLING, SAMPLING_WARNING: local pipeline
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSubmitRejected, "job rejected: %s", reason)
//	if errors.Is(err, errors.ErrCodeSubmitRejected) {
//	    // resubmit later
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConnectivity, origErr, "ping %s", url)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidMode    Code = "INVALID_MODE"
	ErrCodeInvalidChannel Code = "INVALID_CHANNEL"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidEmail   Code = "INVALID_EMAIL"
	ErrCodeInvalidState   Code = "INVALID_STATE"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Remote tour service errors
	ErrCodeConnectivity     Code = "CONNECTIVITY"
	ErrCodeSubmitRejected   Code = "SUBMIT_REJECTED"
	ErrCodeSolveFailed      Code = "SOLVE_FAILED"
	ErrCodeNoData           Code = "NO_DATA"
	ErrCodeRetriesExhausted Code = "RETRIES_EXHAUSTED"

	// Local pipeline errors
	ErrCodeLocalSolveFailed   Code = "LOCAL_SOLVE_FAILED"
	ErrCodeInadequateSampling Code = "INADEQUATE_SAMPLING"
	ErrCodeSamplingWarning    Code = "SAMPLING_WARNING"

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

// Retryable reports whether the orchestrator resolves err by resubmitting the
// failing channel. Connectivity failures are not retryable: they abort the
// whole online session.
func Retryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeSubmitRejected, ErrCodeSolveFailed, ErrCodeNoData:
		return true
	default:
		return false
	}
}

// ServiceError carries the raw diagnostic text returned by the remote tour
// service alongside the classified error.
type ServiceError struct {
	Code     Code
	JobID    int
	Response string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.JobID > 0 {
		return fmt.Sprintf("%s: job %d", e.Code, e.JobID)
	}
	return string(e.Code)
}

// Diagnostic returns the raw service output for logging.
func Diagnostic(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Response
	}
	return ""
}
