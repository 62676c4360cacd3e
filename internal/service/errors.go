package service

import (
	"errors"
	"fmt"

	"go-trash-bin/internal/proxy"
)

// RetryableError marks a handler failure as transient so the runner
// reschedules the job with backoff instead of failing the entry outright.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err as transient; a nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// isTransient decides retry vs. permanent failure for a handler error.
// Explicitly wrapped errors and proxy infrastructure failures are worth
// another attempt; anything else needs operator attention.
func isTransient(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}
	return proxy.IsRetryable(err)
}
