package solar

import (
	"errors"
	"fmt"
)

// Domain errors for field access.
var (
	// ErrUnknownField indicates a name that does not resolve to a field.
	ErrUnknownField = errors.New("solar: unknown field")

	// ErrReadOnlyField indicates an external write to a simulation-owned field.
	ErrReadOnlyField = errors.New("solar: field is read-only")
)

// FieldError wraps an access error with the requested field name.
type FieldError struct {
	Name string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
