package validation

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *Error through errors.Is.
var ErrValidation = errors.New("validation failed")

// Error reports a missing or invalid checkout field. It is always raised before any network call.
type Error struct {
	Field  string
	Reason string
	Err    error
}

// NewError returns an *Error for field.
func NewError(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

// WrapError returns an *Error for field that also matches err.
func WrapError(field, reason string, err error) *Error {
	return &Error{Field: field, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrValidation }
