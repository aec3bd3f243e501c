package services

import (
	"errors"
	"fmt"

	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/utils"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeExternal    ErrorType = "external"
	ErrorTypeInternal    ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// carrierErrorTypes maps carrier error codes onto the domain taxonomy
var carrierErrorTypes = map[string]ErrorType{
	carriers.CodeUnknownProvider:      ErrorTypeNotFound,
	carriers.CodeDuplicateProvider:    ErrorTypeConflict,
	carriers.CodeUnconfiguredProvider: ErrorTypeUnavailable,
	carriers.CodeProviderTimeout:      ErrorTypeTimeout,
	carriers.CodeProviderRateLimited:  ErrorTypeRateLimit,
	carriers.CodeProviderRequest:      ErrorTypeExternal,
}

// FromError classifies any service error as a DomainError. Domain errors
// pass through, carrier errors are mapped by code, validation errors become
// ErrorTypeValidation and everything else is internal.
func FromError(err error) *DomainError {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var provErr *carriers.ProviderError
	if errors.As(err, &provErr) {
		errType, ok := carrierErrorTypes[provErr.Code]
		if !ok {
			errType = ErrorTypeExternal
		}
		out := NewDomainError(errType, provErr.Message, err)
		if provErr.Provider != "" {
			out.WithDetail("provider", provErr.Provider)
		}
		out.WithDetail("code", provErr.Code)
		if provErr.StatusCode != 0 {
			out.WithDetail("carrier_status", provErr.StatusCode)
		}
		return out
	}

	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		out := NewDomainError(ErrorTypeValidation, validationErr.Message, err)
		for field, msg := range validationErr.Fields {
			out.WithDetail(field, msg)
		}
		return out
	}

	return NewDomainError(ErrorTypeInternal, "internal error", err)
}

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
