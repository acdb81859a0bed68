// Package errors provides the error taxonomy shared by the pricing engines.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNonFinite       = errors.New("non-finite value")
	ErrConfigInvalid   = errors.New("invalid configuration")
)

// ValidationError reports a rejected input. It matches ErrInvalidArgument.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ComputationError reports a failure inside a numerical stage, e.g. a
// caller-supplied function returning NaN during simulation.
type ComputationError struct {
	Stage string
	Step  int
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error [%s] step %d: %v", e.Stage, e.Step, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// NewComputationError creates a new ComputationError.
func NewComputationError(stage string, step int, err error) *ComputationError {
	return &ComputationError{
		Stage: stage,
		Step:  step,
		Err:   err,
	}
}

// NonFinite returns an error wrapping ErrNonFinite for the named quantity.
func NonFinite(what string, v float64) error {
	return fmt.Errorf("%s = %v: %w", what, v, ErrNonFinite)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
