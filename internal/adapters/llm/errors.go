package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError is a failure that may succeed on retry
type TransientError struct{ err error }

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError marks err as retryable
func NewTransientError(err error) error { return &TransientError{err: err} }

// FatalError is a failure that retrying will not fix
type FatalError struct{ err error }

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError marks err as permanent
func NewFatalError(err error) error { return &FatalError{err: err} }

// IsTransient reports whether err is retryable
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err is permanent
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}

// classifyHTTPError maps a non-200 status to a transient or fatal error
func classifyHTTPError(status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	err := fmt.Errorf("model api error (status %d): %s", status, snippet)
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
