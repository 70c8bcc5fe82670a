package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of embedding-related error
type ErrorType string

const (
	// ErrTypeProvider indicates the remote service rejected or failed the request
	ErrTypeProvider ErrorType = "provider"

	// ErrTypeConfiguration indicates configuration errors
	ErrTypeConfiguration ErrorType = "configuration"

	// ErrTypeAuthentication indicates authentication errors
	ErrTypeAuthentication ErrorType = "authentication"

	// ErrTypeRateLimit indicates rate limiting errors
	ErrTypeRateLimit ErrorType = "rate_limit"

	// ErrTypeNetwork indicates network-related errors
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeTimeout indicates timeout errors
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeValidation indicates input validation errors
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeDimension indicates a vector of unexpected length
	ErrTypeDimension ErrorType = "dimension"

	// ErrTypeRegistration indicates provider registration errors
	ErrTypeRegistration ErrorType = "registration"

	// ErrTypeNotFound indicates provider not found errors
	ErrTypeNotFound ErrorType = "not_found"

	// ErrTypeInternal indicates internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// ProviderError represents errors raised by embedding providers
type ProviderError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message provides human-readable error description
	Message string `json:"message"`

	// Provider indicates which provider caused the error
	Provider string `json:"provider,omitempty"`

	// StatusCode for HTTP-related errors
	StatusCode int `json:"status_code,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`

	// Retryable indicates if the operation can be retried
	Retryable bool `json:"retryable"`

	// RetryAfter suggests when to retry, in seconds
	RetryAfter int `json:"retry_after,omitempty"`

	// Details provides additional context
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}

	parts = append(parts, fmt.Sprintf("type=%s", e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *ProviderError) Is(target error) bool {
	if pe, ok := target.(*ProviderError); ok {
		return e.Type == pe.Type
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// NewProviderError creates a new provider error
func NewProviderError(errType ErrorType, message, provider string) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Retryable: isRetryableError(errType),
	}
}

// NewProviderErrorWithCause creates a provider error with an underlying cause
func NewProviderErrorWithCause(errType ErrorType, message, provider string, cause error) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Cause:     cause,
		Retryable: isRetryableError(errType),
	}
}

// NewConfigurationError creates a configuration error for a single field
func NewConfigurationError(provider, field, message string) *ProviderError {
	return &ProviderError{
		Type:     ErrTypeConfiguration,
		Message:  fmt.Sprintf("field '%s': %s", field, message),
		Provider: provider,
		Details:  map[string]any{"field": field},
	}
}

// NewValidationError creates an input validation error
func NewValidationError(provider, message string) *ProviderError {
	return NewProviderError(ErrTypeValidation, message, provider)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(provider string, retryAfter int) *ProviderError {
	return &ProviderError{
		Type:       ErrTypeRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		Provider:   provider,
		StatusCode: 429,
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}

// NewDimensionError reports a vector whose length differs from the configured dimension
func NewDimensionError(provider string, got, want int) *ProviderError {
	return &ProviderError{
		Type:     ErrTypeDimension,
		Message:  fmt.Sprintf("embedding has %d dimensions, expected %d", got, want),
		Provider: provider,
		Details:  map[string]any{"got": got, "want": want},
	}
}

// isRetryableError determines if an error type is retryable
func isRetryableError(errType ErrorType) bool {
	switch errType {
	case ErrTypeRateLimit, ErrTypeTimeout, ErrTypeNetwork:
		return true
	default:
		return false
	}
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, &ProviderError{Type: ErrTypeConfiguration})
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return errors.Is(err, &ProviderError{Type: ErrTypeRateLimit})
}
