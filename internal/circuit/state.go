package circuit

import (
	"fmt"
	"math"
	"strings"
)

// Constants are fixed for the lifetime of a session.
type Constants struct {
	MaxVoltage  float64
	Capacitance float64
	Resistance  float64
	ChargeRate  float64
}

func (c Constants) Validate() error {
	params := []struct {
		name  string
		value float64
	}{
		{"max_voltage", c.MaxVoltage},
		{"capacitance", c.Capacitance},
		{"resistance", c.Resistance},
		{"charge_rate", c.ChargeRate},
	}
	for _, p := range params {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return &ParamError{Name: p.name, Value: p.value}
		}
	}
	return nil
}

type State struct {
	K1Closed bool
	K2Closed bool
	Voltage  float64
	SimTime  float64
	Constants
}

// New returns a discharged circuit with both keys open.
func New(c Constants) (State, error) {
	if err := c.Validate(); err != nil {
		return State{}, err
	}
	return State{Constants: c}, nil
}

// RC is the leakage time constant in seconds.
func (s State) RC() float64 {
	return s.Resistance * s.Capacitance
}

type Phase int

const (
	Holding Phase = iota
	Charging
	Leaking
)

func (p Phase) String() string {
	switch p {
	case Charging:
		return "charging"
	case Leaking:
		return "leaking"
	default:
		return "holding"
	}
}

// Phase reports which path is active. K1 wins when both keys are closed.
func (s State) Phase() Phase {
	switch {
	case s.K1Closed:
		return Charging
	case s.K2Closed:
		return Leaking
	default:
		return Holding
	}
}

// Deflection is the galvanometer needle position in [0, 1].
func (s State) Deflection() float64 {
	if s.MaxVoltage <= 0 {
		return 0
	}
	return math.Min(math.Max(s.Voltage/s.MaxVoltage, 0), 1)
}

func (s State) Closed(sw Switch) bool {
	switch sw {
	case K1:
		return s.K1Closed
	case K2:
		return s.K2Closed
	}
	return false
}

func (s State) WithSwitch(sw Switch, closed bool) State {
	switch sw {
	case K1:
		s.K1Closed = closed
	case K2:
		s.K2Closed = closed
	}
	return s
}

type Switch int

const (
	K1 Switch = iota + 1
	K2
)

func (sw Switch) String() string {
	switch sw {
	case K1:
		return "K1"
	case K2:
		return "K2"
	}
	return fmt.Sprintf("Switch(%d)", int(sw))
}

// Role is the bench label shown next to the key.
func (sw Switch) Role() string {
	switch sw {
	case K1:
		return "charge"
	case K2:
		return "leak"
	}
	return ""
}

func ParseSwitch(name string) (Switch, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "k1", "1", "charge":
		return K1, nil
	case "k2", "2", "leak":
		return K2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSwitch, name)
}

func KeyLabel(closed bool) string {
	if closed {
		return "CLOSED"
	}
	return "OPEN"
}
