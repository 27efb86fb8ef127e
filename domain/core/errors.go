package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)

	// Analysis preconditions
	ErrInsufficientData  = errors.New("insufficient data for analysis")
	ErrMissingDateColumn = errors.New("date column not present in dataset")
	ErrEmptyWindow       = errors.New("analysis window contains no rows")

	// Data shape errors
	ErrColumnLengthMismatch = errors.New("column length does not match table row count")
	ErrDuplicateColumn      = errors.New("column already present in table")
)

// NewNotFoundError builds a not-found error with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError builds a field validation error
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInsufficientData reports whether err indicates the engine cannot proceed
// and should fall back to an empty result.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMissingDateColumn) ||
		errors.Is(err, ErrEmptyWindow)
}
