package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/leaklab/internal/circuit"
)

func newCircuit(t *testing.T) circuit.State {
	t.Helper()
	s, err := circuit.New(circuit.Constants{MaxVoltage: 100, Capacitance: 1, Resistance: 5, ChargeRate: 15})
	if err != nil {
		t.Fatalf("circuit: %v", err)
	}
	return s
}

func all() map[string]Integrator {
	return map[string]Integrator{"euler": NewEuler(), "exact": NewExact()}
}

func TestChargingMonotonicAndBounded(t *testing.T) {
	for name, integ := range all() {
		t.Run(name, func(t *testing.T) {
			x := newCircuit(t).WithSwitch(circuit.K1, true)
			for _, dt := range []float64{0.016, 0.001, 0.05, 0.2, 1.0, 0} {
				for i := 0; i < 50; i++ {
					prev := x.Voltage
					x = integ.Step(x, dt)
					if x.Voltage < prev {
						t.Fatalf("voltage decreased while charging: %f -> %f (dt=%f)", prev, x.Voltage, dt)
					}
					if x.Voltage > x.MaxVoltage+1e-9 {
						t.Fatalf("voltage %f exceeded max %f (dt=%f)", x.Voltage, x.MaxVoltage, dt)
					}
				}
			}
			if math.Abs(x.Voltage-x.MaxVoltage) > 1e-6 {
				t.Errorf("expected voltage to approach %f, got %f", x.MaxVoltage, x.Voltage)
			}
		})
	}
}

func TestEulerChargeFormula(t *testing.T) {
	x := newCircuit(t).WithSwitch(circuit.K1, true)
	x = NewEuler().Step(x, 0.01)
	want := 0 + (100-0)*15*0.01
	if math.Abs(x.Voltage-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, x.Voltage)
	}
}

func TestLeakingMatchesClosedForm(t *testing.T) {
	for name, integ := range all() {
		t.Run(name, func(t *testing.T) {
			x := newCircuit(t)
			x.Voltage = 100
			x = x.WithSwitch(circuit.K2, true)

			small := x
			dt := 0.001
			steps := 10000
			for i := 0; i < steps; i++ {
				prev := small.Voltage
				small = integ.Step(small, dt)
				if small.Voltage > prev {
					t.Fatalf("voltage increased while leaking at step %d", i)
				}
			}

			large := integ.Step(x, float64(steps)*dt)
			expected := 100 * math.Exp(-10.0/5.0)

			if math.Abs(small.Voltage-expected) > 1e-6 {
				t.Errorf("small steps: expected %.6f, got %.6f", expected, small.Voltage)
			}
			if math.Abs(large.Voltage-expected) > 1e-9 {
				t.Errorf("single step: expected %.6f, got %.6f", expected, large.Voltage)
			}
			if math.Abs(small.SimTime-large.SimTime) > 1e-6 {
				t.Errorf("sim time mismatch: %f vs %f", small.SimTime, large.SimTime)
			}
		})
	}
}

func TestHoldWithBothOpen(t *testing.T) {
	for name, integ := range all() {
		t.Run(name, func(t *testing.T) {
			x := newCircuit(t)
			x.Voltage = 42.5
			for _, dt := range []float64{0.016, 1, 100, 0} {
				x = integ.Step(x, dt)
			}
			if x.Voltage != 42.5 {
				t.Errorf("expected voltage held at 42.5, got %f", x.Voltage)
			}
		})
	}
}

func TestBothClosedCharges(t *testing.T) {
	x := newCircuit(t).WithSwitch(circuit.K1, true).WithSwitch(circuit.K2, true)
	x = NewEuler().Step(x, 0.05)
	if x.Voltage <= 0 {
		t.Errorf("expected charging to dominate, got %f", x.Voltage)
	}
}

func TestNonPositiveDtIsNoop(t *testing.T) {
	x := newCircuit(t).WithSwitch(circuit.K1, true)
	x.Voltage = 10
	x.SimTime = 3

	for _, dt := range []float64{0, -1, math.NaN()} {
		got := NewEuler().Step(x, dt)
		if got.Voltage != 10 || got.SimTime != 3 {
			t.Errorf("dt=%f: expected no change, got v=%f t=%f", dt, got.Voltage, got.SimTime)
		}
	}
}

func TestTinyRCCollapsesToZero(t *testing.T) {
	x, _ := circuit.New(circuit.Constants{MaxVoltage: 100, Capacitance: 1e-9, Resistance: 1e-9, ChargeRate: 15})
	x.Voltage = 100
	x = x.WithSwitch(circuit.K2, true)
	x = NewEuler().Step(x, 0.016)
	if x.Voltage != 0 {
		t.Errorf("expected immediate discharge, got %g", x.Voltage)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "euler", "exact"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("rk4"); err == nil {
		t.Error("expected error for unknown integrator")
	}
	if got := Names(); len(got) != 2 || got[0] != "euler" {
		t.Errorf("unexpected names %v", got)
	}
}
