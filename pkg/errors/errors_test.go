package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeConnectivity, cause, "ping failed")

	if err.Code != ErrCodeConnectivity {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConnectivity)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeNoData, "x"), ErrCodeNoData, true},
		{"non-matching code", New(ErrCodeNoData, "x"), ErrCodeSolveFailed, false},
		{"outer code wins", Wrap(ErrCodeConnectivity, New(ErrCodeNoData, "inner"), "outer"), ErrCodeConnectivity, true},
		{"fmt wrapped", fmt.Errorf("channel 2: %w", New(ErrCodeSubmitRejected, "x")), ErrCodeSubmitRejected, true},
		{"non-Error type", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeLocalSolveFailed, "x")); got != ErrCodeLocalSolveFailed {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeLocalSolveFailed)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInadequateSampling, "no points")); got != "no points" {
		t.Errorf("UserMessage() = %q, want %q", got, "no points")
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeSubmitRejected, true},
		{ErrCodeSolveFailed, true},
		{ErrCodeNoData, true},
		{ErrCodeConnectivity, false},
		{ErrCodeRetriesExhausted, false},
		{ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := Retryable(New(tt.code, "x")); got != tt.want {
				t.Errorf("Retryable(%s) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestDiagnostic(t *testing.T) {
	se := &ServiceError{Code: ErrCodeSolveFailed, JobID: 42, Response: "Concorde crashed"}
	err := Wrap(ErrCodeSolveFailed, se, "job 42")
	if got := Diagnostic(err); got != "Concorde crashed" {
		t.Errorf("Diagnostic() = %q, want %q", got, "Concorde crashed")
	}
	if got := se.Error(); got != "SOLVE_FAILED: job 42" {
		t.Errorf("Error() = %q", got)
	}
	if got := Diagnostic(errors.New("plain")); got != "" {
		t.Errorf("Diagnostic(plain) = %q, want empty", got)
	}
}
