package validation

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField     = errors.New("missing field")
	ErrInvalidVehicleID = errors.New("invalid vehicle id")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrWrongType        = errors.New("wrong type")
	ErrUnknownType      = errors.New("unknown event type")
)

// ValidationError describes why a payload was rejected. It wraps one of the
// sentinel errors above.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Err: err, Reason: fmt.Sprintf(format, args...)}
}

// Warning flags a questionable value on an accepted event.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Field + ": " + w.Message }
