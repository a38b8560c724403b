package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrRunNotFound    = fmt.Errorf("%w: run", ErrNotFound)
	ErrEntityNotFound = fmt.Errorf("%w: entity", ErrNotFound)

	// Input contract errors
	ErrValidation   = errors.New("validation failed")
	ErrPrecondition = errors.New("precondition violated")

	// Numeric errors
	ErrDomainMath = errors.New("math domain error")
	ErrDivision   = errors.New("division by zero")

	// Batch errors
	ErrTrialFailed = errors.New("permutation trial failed")
	ErrTimeout     = errors.New("permutation run timed out")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

func NewPreconditionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, reason)
}

func NewDomainMathError(operation string, reason string) error {
	return fmt.Errorf("%w in %s: %s", ErrDomainMath, operation, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// TrialError identifies the trial that aborted a permutation batch.
type TrialError struct {
	Index    int
	Strategy string
	Err      error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("%s: strategy %s trial %d: %v", ErrTrialFailed, e.Strategy, e.Index, e.Err)
}

func (e *TrialError) Unwrap() []error {
	return []error{ErrTrialFailed, e.Err}
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

func IsMathError(err error) bool {
	return errors.Is(err, ErrDomainMath) || errors.Is(err, ErrDivision)
}
