package errors

import (
	"fmt"
	"time"
)

// APIError is the error shape returned by every handler
type APIError struct {
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	Field      string        `json:"field,omitempty"`
	Details    string        `json:"details,omitempty"`
	Status     int           `json:"-"`
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return newAPIError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return newAPIError(ErrUnauthorized, message)
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return newAPIError(ErrForbidden, message)
}

// ValidationError creates a VALIDATION_ERROR bound to a request field
func ValidationError(field, message string) *APIError {
	e := newAPIError(ErrValidation, message)
	e.Field = field
	return e
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return newAPIError(ErrBadRequest, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newAPIError(ErrInternalError, message)
}

// Throttled is returned when a repeated view falls inside the cooldown.
// It is an expected outcome, not a failure.
func Throttled(retryAfter time.Duration) *APIError {
	e := newAPIError(ErrThrottled, "view already counted recently")
	e.RetryAfter = retryAfter
	return e
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string, retryAfter time.Duration) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	e := newAPIError(ErrRateLimited, message)
	e.RetryAfter = retryAfter
	return e
}

// Upstream creates an UPSTREAM_ERROR for failures of a remote dependency
func Upstream(service string) *APIError {
	return newAPIError(ErrUpstream, fmt.Sprintf("%s request failed", service))
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return newAPIError(ErrServiceUnavail, fmt.Sprintf("%s is temporarily unavailable", service))
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}
