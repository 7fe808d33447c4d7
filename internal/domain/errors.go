package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrInvalidRequest is returned when search input fails validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrProviderTimeout is returned when a provider does not answer in time.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrProviderUnavailable is returned when a provider is down or returns 5xx.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRateLimited is returned when a provider answers 429.
	ErrProviderRateLimited = errors.New("provider rate limited")

	// ErrProviderAuth is returned when provider credentials are rejected.
	ErrProviderAuth = errors.New("provider authentication failed")

	// ErrMalformedResponse is returned when a provider payload cannot be decoded.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrAllProvidersFailed is returned when every provider call of a search failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrCacheMiss is returned by cache stores when a key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrRoutingNotFound is returned when no routing decision exists for a session/offer.
	ErrRoutingNotFound = errors.New("routing decision not found")
)

// ProviderError wraps a failure of a single provider call.
type ProviderError struct {
	Provider   string
	Err        error
	Retryable  bool
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a non-retryable ProviderError.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}

// NewRetryableProviderError creates a ProviderError worth retrying.
func NewRetryableProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err, Retryable: true}
}

// NewProviderTimeoutError creates a ProviderError wrapping ErrProviderTimeout.
func NewProviderTimeoutError(provider string) *ProviderError {
	return &ProviderError{Provider: provider, Err: ErrProviderTimeout}
}

// NewProviderUnavailableError creates a retryable ProviderError wrapping ErrProviderUnavailable.
func NewProviderUnavailableError(provider string) *ProviderError {
	return &ProviderError{Provider: provider, Err: ErrProviderUnavailable, Retryable: true}
}

// NewRateLimitedError creates a ProviderError wrapping ErrProviderRateLimited.
func NewRateLimitedError(provider string, retryAfter time.Duration) *ProviderError {
	return &ProviderError{Provider: provider, Err: ErrProviderRateLimited, RetryAfter: retryAfter}
}

// AllProvidersFailedError reports every failed provider call of a search.
// It matches ErrAllProvidersFailed, and additionally context.DeadlineExceeded
// when all failures were timeouts or ErrProviderRateLimited when all were 429s.
type AllProvidersFailedError struct {
	Failures []error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrAllProvidersFailed, strings.Join(msgs, "; "))
}

// Is supports errors.Is against the classified sentinels.
func (e *AllProvidersFailedError) Is(target error) bool {
	switch target {
	case ErrAllProvidersFailed:
		return true
	case context.DeadlineExceeded:
		return e.allMatch(isTimeout)
	case ErrProviderRateLimited:
		return e.allMatch(func(err error) bool { return errors.Is(err, ErrProviderRateLimited) })
	}
	return false
}

// RetryAfter returns the longest Retry-After hint among rate-limited failures.
func (e *AllProvidersFailedError) RetryAfter() time.Duration {
	var longest time.Duration
	for _, f := range e.Failures {
		var pe *ProviderError
		if errors.As(f, &pe) && pe.RetryAfter > longest {
			longest = pe.RetryAfter
		}
	}
	return longest
}

func (e *AllProvidersFailedError) allMatch(fn func(error) bool) bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if !fn(f) {
			return false
		}
	}
	return true
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError describes one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError match ErrInvalidRequest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// WrapInvalidRequest formats a message wrapping ErrInvalidRequest.
func WrapInvalidRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsInvalidRequest reports whether err is a validation failure.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsAllProvidersFailed reports whether err means no provider answered.
func IsAllProvidersFailed(err error) bool {
	return errors.Is(err, ErrAllProvidersFailed)
}

// IsProviderTimeout reports whether err is a provider timeout.
func IsProviderTimeout(err error) bool {
	return isTimeout(err)
}

// IsRetryable reports whether err is a ProviderError marked retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}
