package models

import "fmt"

// ValidationError reports a malformed artifact request. It names the
// offending field and is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s'", e.Field)
}

// RateLimitError is the canonical HTTP 429 signal from the CRM. It is
// retried with exponential backoff up to the retry budget.
type RateLimitError struct {
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (HTTP %d)", e.StatusCode)
}

// TransientError covers timeouts, 5xx responses and network failures.
// It shares the retry budget with rate limiting but reports as a plain
// error on exhaustion.
type TransientError struct {
	Cause string
}

func (e *TransientError) Error() string {
	return e.Cause
}
