package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by record stores when no employee has the given id.
var ErrNotFound = errors.New("employee not found")

// ValidationError reports a request body that could not be coerced into
// employee fields.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
