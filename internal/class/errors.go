package class

import "errors"

// Errors for class and mutator registry operations.
var (
	// ErrDuplicateName is returned when a mutator name is already registered.
	ErrDuplicateName = errors.New("mutator already registered")

	// ErrUnknownName is returned when removing a mutator that is not registered.
	ErrUnknownName = errors.New("mutator not registered")

	// ErrInvalidConstruction is returned when Create is called without arguments.
	ErrInvalidConstruction = errors.New("invalid class construction")
)
