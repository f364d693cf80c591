package value

import "errors"

// Errors for value operations.
var (
	// ErrNoSuchParentMethod is returned when an explicit parent invocation names
	// a member that is missing or not callable on the parent prototype.
	ErrNoSuchParentMethod = errors.New("no such parent method")

	// ErrTypeConstraint is returned when a value does not have the required shape.
	ErrTypeConstraint = errors.New("type constraint violated")

	// ErrNotCallable is returned when a method call targets a non-callable member.
	ErrNotCallable = errors.New("value is not callable")
)
