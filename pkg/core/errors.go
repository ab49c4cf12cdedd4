// Package core defines the canonical error taxonomy shared by the backend
// client and the orchestration layer.
package core

import (
	"errors"
	"fmt"
)

// DefaultRetryAfterSeconds is assumed when a rate-limit response carries a
// missing or malformed retry delay.
const DefaultRetryAfterSeconds = 3600

// Error is the canonical error returned by the backend client.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// RetryAfter is the backend-reported delay in seconds before the quota
	// resets. Only set for rate-limit errors.
	RetryAfter *int `json:"retry_after_seconds,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrAPI            ErrorType = "api_error"
	ErrOverloaded     ErrorType = "overloaded_error"
	// ErrCapability marks an absent platform capability (no speech
	// recognition or synthesis available). Reported once, never fatal.
	ErrCapability ErrorType = "capability_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewRateLimitError creates a rate-limit error with a retry delay in seconds.
func NewRateLimitError(message string, retryAfter int) *Error {
	return &Error{Type: ErrRateLimit, Message: message, RetryAfter: &retryAfter}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// NewOverloadedError creates an overloaded error.
func NewOverloadedError(message string) *Error {
	return &Error{Type: ErrOverloaded, Message: message}
}

// NewCapabilityError creates a capability-absence error.
func NewCapabilityError(message string) *Error {
	return &Error{Type: ErrCapability, Message: message}
}

// IsRateLimit reports whether err is a rate-limit error.
func IsRateLimit(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == ErrRateLimit
}

// RetryAfterSeconds extracts the retry delay from a rate-limit error.
// A missing or non-positive delay yields DefaultRetryAfterSeconds.
func RetryAfterSeconds(err error) int {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Type != ErrRateLimit {
		return 0
	}
	if apiErr.RetryAfter == nil || *apiErr.RetryAfter <= 0 {
		return DefaultRetryAfterSeconds
	}
	return *apiErr.RetryAfter
}
