package sim

import (
	"context"
	"sync"
	"time"

	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/integrators"
)

// Simulator owns the live circuit state and is its only mutator. Readers
// get copies from Snapshot.
type Simulator struct {
	mu         sync.RWMutex
	integrator integrators.Integrator
	clock      clock.Clock
	state      circuit.State
	last       time.Time
	observers  []Observer
}

func New(x0 circuit.State, integrator integrators.Integrator, clk clock.Clock) *Simulator {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Simulator{
		integrator: integrator,
		clock:      clk,
		state:      x0,
		last:       clk.Now(),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Simulator) Snapshot() circuit.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Advance steps by the wall-clock time elapsed since the previous step.
func (s *Simulator) Advance() circuit.State {
	s.mu.Lock()
	x := s.catchUpLocked()
	obs := s.observers
	s.mu.Unlock()

	s.notify(obs, x)
	return x
}

// StepBy steps by d regardless of the clock and moves the clock mark with
// it, so the next Advance only integrates time beyond the step.
func (s *Simulator) StepBy(d time.Duration) circuit.State {
	s.mu.Lock()
	s.state = s.integrator.Step(s.state, d.Seconds())
	s.last = s.last.Add(d)
	x := s.state
	obs := s.observers
	s.mu.Unlock()

	s.notify(obs, x)
	return x
}

// SetSwitch integrates the time spent under the old key positions before
// flipping the key. Observers see the bench as it is after the change.
func (s *Simulator) SetSwitch(sw circuit.Switch, closed bool) circuit.State {
	return s.mutate(func(x *circuit.State) {
		*x = x.WithSwitch(sw, closed)
	})
}

func (s *Simulator) Toggle(sw circuit.Switch) circuit.State {
	return s.mutate(func(x *circuit.State) {
		*x = x.WithSwitch(sw, !x.Closed(sw))
	})
}

// Reset opens both keys and discharges the condenser. Sim time keeps
// running so it never goes backwards.
func (s *Simulator) Reset() circuit.State {
	return s.mutate(func(x *circuit.State) {
		x.K1Closed = false
		x.K2Closed = false
		x.Voltage = 0
	})
}

func (s *Simulator) mutate(change func(x *circuit.State)) circuit.State {
	s.mu.Lock()
	s.catchUpLocked()
	change(&s.state)
	x := s.state
	obs := s.observers
	s.mu.Unlock()

	s.notify(obs, x)
	return x
}

func (s *Simulator) catchUpLocked() circuit.State {
	now := s.clock.Now()
	if now.After(s.last) {
		s.state = s.integrator.Step(s.state, now.Sub(s.last).Seconds())
		s.last = now
	}
	return s.state
}

func (s *Simulator) notify(obs []Observer, x circuit.State) {
	for _, o := range obs {
		o.OnStep(x)
	}
}

// Run drives Advance every interval until ctx is cancelled. Cancelling ctx
// is the only way to stop it.
func (s *Simulator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Advance()
		}
	}
}

// RunWithCallback plays cfg.Duration of simulated time in fixed steps. The
// clock mark moves with each step, so a driver that advances a manual clock
// by the step it is handed keeps the two in line. The callback sees every
// state and may stop the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(x circuit.State, step time.Duration) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	for remaining := cfg.Duration; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := min(cfg.Step, remaining)
		x := s.StepBy(step)
		remaining -= step

		if callback != nil && !callback(x, step) {
			return nil
		}
	}
	return nil
}
