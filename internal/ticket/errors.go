package ticket

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a ticket ID does not exist in the store.
var ErrNotFound = errors.New("ticket not found")

// ValidationError reports rejected ticket input, such as an empty
// description. It is distinguishable from infrastructure failures so
// callers can answer the user instead of logging an internal error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ticket: invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
