package circuit

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterBounds indicates a circuit constant outside its valid range.
	ErrParameterBounds = errors.New("circuit: parameter out of valid bounds")

	// ErrUnknownSwitch indicates a key name that is not on the bench.
	ErrUnknownSwitch = errors.New("circuit: unknown switch")
)

// ParamError reports which constant failed validation.
type ParamError struct {
	Name  string
	Value float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("circuit: %s must be positive, got %g", e.Name, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}
