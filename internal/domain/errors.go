package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation signals a malformed request rejected before any external call.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing experience record.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable signals an embedding or generation provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrDatastore signals a fused-search or lookup failure; retryable by the caller.
	ErrDatastore = errors.New("datastore error")
)

// RateLimitError wraps ErrRateLimited with quota details for the 429 response.
type RateLimitError struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited.Error(), e.ResetAt.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// NewRateLimit creates a rate limit error carrying the reset time.
func NewRateLimit(limit, remaining int, resetAt time.Time) error {
	return &RateLimitError{Limit: limit, Remaining: remaining, ResetAt: resetAt}
}
