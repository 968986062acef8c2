package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while building or running evaluations.
var (
	// ErrInvalidInput indicates that a datapoint's input is neither a
	// positional sequence nor a named mapping.
	ErrInvalidInput = errors.New("invalid input type")

	// ErrInvalidCriterion indicates that a criterion is missing or not callable.
	ErrInvalidCriterion = errors.New("invalid criterion")

	// ErrAnonymousCriterion indicates that a criterion supplied in list form
	// does not expose a usable name.
	ErrAnonymousCriterion = errors.New("criterion must have a name")

	// ErrInvalidScore indicates that a criterion produced a value that cannot
	// be interpreted as a finite number.
	ErrInvalidScore = errors.New("invalid score")

	// ErrEmptyDataset indicates that a run was requested over an empty dataset.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures for a single entity.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
