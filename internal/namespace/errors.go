package namespace

import "errors"

// ErrUnresolvedReference is returned when a class referenced by name cannot
// be found in the namespace or the global namespace.
var ErrUnresolvedReference = errors.New("unresolved class reference")
