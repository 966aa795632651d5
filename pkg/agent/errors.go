package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes LLM call failures for retry decisions.
type ErrorType int8

const (
	// ErrorTypeRateLimit is a rate limiting error (429, quota exceeded). Retryable.
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient is a transient error (5xx, EOF, connection reset, timeout). Retryable.
	ErrorTypeTransient
	// ErrorTypeEmptyResponse is HTTP 200 with no usable content. Retryable.
	ErrorTypeEmptyResponse
	// ErrorTypeAuth is an authentication error (401/403, bad API key). Not retryable.
	ErrorTypeAuth
	// ErrorTypeBadPrompt is a malformed request (too long, policy violation). Not retryable.
	ErrorTypeBadPrompt
	// ErrorTypeUnknown is the default for unclassified errors.
	ErrorTypeUnknown
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Retryable reports whether a failure of this type is worth retrying.
func (et ErrorType) Retryable() bool {
	switch et {
	case ErrorTypeRateLimit, ErrorTypeTransient, ErrorTypeEmptyResponse:
		return true
	default:
		return false
	}
}

// Error is a classified LLM call failure.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error.
func NewError(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// WrapError classifies an underlying provider error by message sniffing.
// Providers surface rich typed errors, but the orchestrator only needs the
// retry category.
func WrapError(err error, context string) *Error {
	return &Error{Type: classify(err), Message: context, Cause: err}
}

func classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"), strings.Contains(msg, "overloaded"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "api key"):
		return ErrorTypeAuth
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "eof"):
		return ErrorTypeTransient
	case strings.Contains(msg, "400"), strings.Contains(msg, "context length"),
		strings.Contains(msg, "too long"):
		return ErrorTypeBadPrompt
	default:
		return ErrorTypeUnknown
	}
}

// TypeOf extracts the classified type from an error chain.
func TypeOf(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
