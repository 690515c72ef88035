package integrators

import (
	"math"

	"github.com/san-kum/leaklab/internal/circuit"
)

// Euler charges with a first-order explicit step toward MaxVoltage.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(x circuit.State, dt float64) circuit.State {
	return step(x, dt, func(v, vmax, rate, dt float64) float64 {
		// a frame hitch with rate*dt > 1 would overshoot the battery
		k := math.Min(rate*dt, 1)
		return v + (vmax-v)*k
	})
}
