package integrators

import (
	"math"

	"github.com/san-kum/leaklab/internal/circuit"
)

// Exact uses the closed-form RC charging curve, so the result does not
// depend on frame cadence.
type Exact struct{}

func NewExact() *Exact {
	return &Exact{}
}

func (e *Exact) Step(x circuit.State, dt float64) circuit.State {
	return step(x, dt, func(v, vmax, rate, dt float64) float64 {
		return vmax - (vmax-v)*math.Exp(-rate*dt)
	})
}
