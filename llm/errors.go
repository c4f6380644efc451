package llm

import "errors"

// ErrEmptyCompletion is returned when the provider answered successfully but
// produced no usable text. An empty completion is never treated as success.
var ErrEmptyCompletion = errors.New("completion returned no usable content")

// TransientError marks a failure worth retrying: rate limits, 5xx responses,
// network errors.
type TransientError struct {
	err error
}

// FatalError marks a failure retrying cannot fix: auth failures, malformed
// requests, unknown providers. A fatal error also stops the fallback chain.
type FatalError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// NewFatalError wraps err as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
