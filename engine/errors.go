package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict reports that a concurrent writer changed a counter or flag
	// between read and write. Callers retry it.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrTemporarilyUnavailable is surfaced once contention retries are exhausted.
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")

	ErrNotFound = errors.New("not found")
)

// ValidationError is returned for inputs rejected before any computation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
