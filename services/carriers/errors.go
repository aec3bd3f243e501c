package carriers

import (
	"errors"
	"fmt"
)

// Error codes carried by ProviderError
const (
	CodeUnknownProvider      = "unknown_provider"
	CodeDuplicateProvider    = "duplicate_provider"
	CodeUnconfiguredProvider = "unconfigured_provider"
	CodeProviderTimeout      = "provider_timeout"
	CodeProviderRateLimited  = "provider_rate_limited"
	CodeProviderRequest      = "provider_request_failed"
)

// Sentinel errors for use with errors.Is. Matching is by Code only.
var (
	ErrUnknownProvider      = &ProviderError{Code: CodeUnknownProvider, Message: "unknown provider"}
	ErrDuplicateProvider    = &ProviderError{Code: CodeDuplicateProvider, Message: "provider already registered"}
	ErrUnconfiguredProvider = &ProviderError{Code: CodeUnconfiguredProvider, Message: "provider credential not configured"}
	ErrProviderTimeout      = &ProviderError{Code: CodeProviderTimeout, Message: "provider request timed out"}
	ErrProviderRateLimited  = &ProviderError{Code: CodeProviderRateLimited, Message: "provider rate limit exhausted"}
	ErrProviderRequest      = &ProviderError{Code: CodeProviderRequest, Message: "provider request failed"}
)

// ProviderError represents an error from a carrier or from resolving one
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code returned by the carrier (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches any ProviderError with the same Code
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// ErrorCode returns the ProviderError code of err, or "" if err is not a ProviderError
func ErrorCode(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}
