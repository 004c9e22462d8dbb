package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when user input is rejected before anything is written.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldValidationError is a shortcut for a ValidationError on a single field.
func NewFieldValidationError(field, msg string) error {
	return &ValidationError{
		Err:    errors.New(field + ": " + msg),
		Fields: []FieldError{{Field: field, Error: msg}},
	}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "invalid data"
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// CounterUpdateError reports a failed update of a denormalized counter. It is logged, never returned to callers.
type CounterUpdateError struct {
	Counter string
	ID      string
	Delta   int
	Err     error
}

func (e *CounterUpdateError) Error() string {
	return fmt.Sprintf("adding %d to %s of %s: %v", e.Delta, e.Counter, e.ID, e.Err)
}

func (e *CounterUpdateError) Unwrap() error { return e.Err }

func (e *CounterUpdateError) LogFields() map[string]interface{} {
	return map[string]interface{}{"counter": e.Counter, "id": e.ID, "delta": e.Delta}
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
