package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrUnknownKey        = errors.New("rate table key not found")
	ErrFieldRequired     = errors.New("field is required")
	ErrFieldNotAllowed   = errors.New("field must be absent")
	ErrNotPositive       = errors.New("must be greater than zero")
	ErrUnknownEnumValue  = errors.New("unknown value")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrUnknownScheme     = errors.New("unknown scheme")
	ErrRateTableNotFound = errors.New("rate table not found")
)

// InvalidInputError reports a request field that is absent or outside its
// declared domain. It is detected before any scheme rule runs.
type InvalidInputError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidInputError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// NewInvalidInput builds an InvalidInputError.
func NewInvalidInput(field, value string, err error) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Err: err}
}

// IneligibleError carries a scheme rule violation. It is user-correctable.
type IneligibleError struct {
	Result EligibilityResult
}

func (e *IneligibleError) Error() string {
	if e.Result.Detail != "" {
		return fmt.Sprintf("ineligible (%s): %s", e.Result.Reason, e.Result.Detail)
	}
	return fmt.Sprintf("ineligible (%s)", e.Result.Reason)
}

// ResolutionError means a legal request reached a rate table key that does not
// exist. This is a data defect, never a user error.
type ResolutionError struct {
	Scheme Scheme
	Table  string
	Key    string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: table %s key %s: %v", e.Scheme, e.Table, e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
