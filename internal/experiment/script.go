package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/sim"
)

// Script is the textbook procedure run without a human at the keys: charge
// fully, open K1, close K2 and start the stopwatch together, then read the
// galvanometer at fixed intervals.
type Script struct {
	ChargeFor time.Duration
	Interval  time.Duration
	Readings  int
	// Frame is the simulated time between physics steps
	Frame time.Duration
	// Pace ties the run to the wall clock at Pace times real speed. Zero
	// runs flat out.
	Pace float64
}

func DefaultScript() Script {
	return Script{
		ChargeFor: time.Second,
		Interval:  2 * time.Second,
		Readings:  5,
		Frame:     time.Second / 60,
	}
}

var ErrNotScriptable = errors.New("scripted runs need a session built on a manual clock")

func (sc Script) validate() error {
	if sc.ChargeFor < 0 {
		return fmt.Errorf("charge time must not be negative, got %v", sc.ChargeFor)
	}
	if sc.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", sc.Interval)
	}
	if sc.Readings <= 0 {
		return fmt.Errorf("readings must be positive, got %d", sc.Readings)
	}
	if sc.Frame <= 0 {
		return fmt.Errorf("frame must be positive, got %v", sc.Frame)
	}
	if sc.Pace < 0 {
		return fmt.Errorf("pace must not be negative, got %f", sc.Pace)
	}
	return nil
}

// RunScript plays sc against the session in simulated time and calculates R
// for every reading. Calculation errors do not stop the run.
func (s *Session) RunScript(ctx context.Context, sc Script) ([]ledger.Reading, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}
	clk, ok := s.clock.(*clock.Manual)
	if !ok {
		return nil, ErrNotScriptable
	}

	advance := func(d time.Duration) error {
		cfg := sim.Config{Step: sc.Frame, Duration: d}
		err := s.sim.RunWithCallback(ctx, cfg, func(_ circuit.State, step time.Duration) bool {
			if sc.Pace > 0 && sleep(ctx, time.Duration(float64(step)/sc.Pace)) != nil {
				return false
			}
			clk.Advance(step)
			return true
		})
		if err != nil {
			return err
		}
		return ctx.Err()
	}

	s.SetSwitch(circuit.K2, false)
	s.SetSwitch(circuit.K1, true)
	if err := advance(sc.ChargeFor); err != nil {
		return nil, err
	}

	s.SetSwitch(circuit.K1, false)
	s.SetSwitch(circuit.K2, true)
	s.watch.Reset()
	s.watch.Start()

	for i := 0; i < sc.Readings; i++ {
		if err := advance(sc.Interval); err != nil {
			return nil, err
		}
		r := s.Record()
		if _, err := s.Calculate(r.ID); err != nil {
			slog.Warn("Scripted reading not usable", "id", r.ID, "error", err)
		}
	}

	s.watch.Stop()
	return s.Readings(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
