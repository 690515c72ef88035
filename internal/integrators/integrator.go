package integrators

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/leaklab/internal/circuit"
)

// Integrator advances the circuit by dt seconds. Implementations are pure
// and never fail: constants are validated when the circuit is built.
type Integrator interface {
	Step(x circuit.State, dt float64) circuit.State
}

var registry = map[string]func() Integrator{
	"euler": func() Integrator { return NewEuler() },
	"exact": func() Integrator { return NewExact() },
}

func ByName(name string) (Integrator, error) {
	if name == "" {
		name = "euler"
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// step applies the key priority shared by every integrator: charge, then
// leak, then hold. The leak branch is already closed-form.
func step(x circuit.State, dt float64, charge func(v, vmax, rate, dt float64) float64) circuit.State {
	if dt <= 0 || math.IsNaN(dt) {
		return x
	}

	v := x.Voltage
	switch x.Phase() {
	case circuit.Charging:
		v = charge(v, x.MaxVoltage, x.ChargeRate, dt)
	case circuit.Leaking:
		v *= math.Exp(-dt / x.RC())
	}

	x.Voltage = math.Max(0, v)
	x.SimTime += dt
	return x
}
