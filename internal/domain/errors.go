package domain

import "errors"

var (
	// ErrNotFound is returned when a folder, deck or card id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when a record fails field validation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTime is returned when a zero timestamp reaches an operation
	// that schedules or evaluates days.
	ErrInvalidTime = errors.New("invalid timestamp")

	// ErrCycle is returned when a folder would be moved into its own subtree.
	ErrCycle = errors.New("folder cannot be moved into itself or a descendant")
)
