// Package errors provides structured error types for the mentor service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDenied       = errors.New("access denied")
	ErrAuthFailure  = errors.New("authentication failed")
	ErrTimeout      = errors.New("operation timed out")
	ErrRateLimit    = errors.New("rate limit exceeded")
	ErrUnavailable  = errors.New("service unavailable")

	// ErrGeneration marks a failed or empty call to the generative text service.
	ErrGeneration = errors.New("generation failed")
	// ErrPersistence marks a failed save of project progress or answers.
	ErrPersistence = errors.New("persistence failed")
	// ErrGrantSwap marks a plan assignment that could not be applied in full.
	ErrGrantSwap = errors.New("plan grant swap failed")
	// ErrMissingTemplate marks a stage that has no prompt template configured.
	ErrMissingTemplate = errors.New("stage has no prompt template")
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
	// RetryAfter is the server's requested wait before the next attempt, if it sent one.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
// Generation failures are never retried automatically, so ErrGeneration is not retryable
// unless it wraps a transient cause.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}

// Generation wraps cause as a generation failure.
func Generation(cause error) error {
	if cause == nil {
		return ErrGeneration
	}
	return fmt.Errorf("%w: %w", ErrGeneration, cause)
}

// Persistence wraps cause as a persistence failure.
func Persistence(cause error) error {
	if cause == nil {
		return ErrPersistence
	}
	return fmt.Errorf("%w: %w", ErrPersistence, cause)
}
