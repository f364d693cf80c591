package script

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrCallLimit is raised when a script exceeds its host call budget.
	ErrCallLimit = errors.New("lua host call limit exceeded")
)
