package sequent

import (
	"errors"
	"fmt"
)

// ErrNoProvider is returned when no provider can be resolved.
var ErrNoProvider = errors.New("no provider configured: set on the coordinator or via context")

// ErrSessionClosed is returned by Accept after Close.
var ErrSessionClosed = errors.New("session closed")

// ValidationError reports a submission that violates a step invariant.
// Nothing is recorded when a ValidationError is returned; the caller may
// correct the fields and resubmit.
type ValidationError struct {
	// Field names the offending field, or the field combination for
	// cross-field rules (for example "revisesSequenceNumber,isRevision").
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// InternalError reports a fault outside validation, typically in the
// coordinator. The ledger keeps whatever it held when the fault happened,
// which includes the step that triggered the call.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInternal reports whether err carries an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

func rejection(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
