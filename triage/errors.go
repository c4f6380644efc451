package triage

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or empty required input field.
// It is user-correctable: the HTTP surface maps it to a 400.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MalformedVerdictError reports that the triage completion did not parse into
// a complete verdict. The pipeline fails closed; no partial verdict is returned.
type MalformedVerdictError struct {
	Reason string
}

func (e *MalformedVerdictError) Error() string {
	return fmt.Sprintf("malformed triage verdict: %s", e.Reason)
}

// CompletionError wraps a transport or provider failure from the completion
// gateway.
type CompletionError struct {
	Stage string // "classify" or "ticket"
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed at %s: %v", e.Stage, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
