package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates deflection values outside the domain of the
	// logarithm. The reading is left untouched.
	ErrInvalidInput = errors.New("ledger: invalid input")

	// ErrNotFound indicates no reading with the requested id.
	ErrNotFound = errors.New("ledger: reading not found")

	ErrBadID = errors.New("ledger: malformed reading id")
)

// InvalidInputError names the reading field that blocked a calculation.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("ledger: invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
