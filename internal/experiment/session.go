// Package experiment ties the bench together: the simulated circuit, the
// stopwatch, the reading ledger, the assistant chat and the deflection trace.
// Every front end (TUI, HTTP, CLI) drives the lab through a Session.
package experiment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/leaklab/internal/analysis"
	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/config"
	"github.com/san-kum/leaklab/internal/integrators"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/sim"
	"github.com/san-kum/leaklab/internal/stopwatch"
	"github.com/san-kum/leaklab/internal/trace"
)

const (
	FirstReadingTip = "Nice, that's your first reading. Select it and calculate R from t, θ0 and θt."
	ResetNote       = "Bench reset. Both keys are open and the condenser is discharged."
)

type Session struct {
	cfg   *config.Config
	clock clock.Clock

	sim    *sim.Simulator
	watch  *stopwatch.Stopwatch
	ledger *ledger.Ledger
	chat   *assistant.Chat
	trace  *trace.Recorder

	mu       sync.Mutex
	tipShown bool
}

func New(cfg *config.Config, gw assistant.Gateway, clk clock.Clock) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if clk == nil {
		clk = clock.Real{}
	}

	x0, err := circuit.New(cfg.Constants())
	if err != nil {
		return nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		clock:  clk,
		sim:    sim.New(x0, integ, clk),
		watch:  stopwatch.New(clk, cfg.StopwatchTick),
		ledger: ledger.New(cfg.Resolution(), clk),
		chat:   assistant.NewChat(gw, clk),
		trace:  trace.NewRecorder(cfg.Trace.Capacity, cfg.Trace.Every),
	}
	s.sim.AddObserver(s.trace)
	return s, nil
}

func (s *Session) Config() *config.Config          { return s.cfg }
func (s *Session) Stopwatch() *stopwatch.Stopwatch { return s.watch }
func (s *Session) Chat() *assistant.Chat           { return s.chat }
func (s *Session) Trace() *trace.Recorder          { return s.trace }

// AddObserver registers o for every simulated step alongside the trace.
func (s *Session) AddObserver(o sim.Observer) {
	s.sim.AddObserver(o)
}

// Advance brings the circuit up to the current time.
func (s *Session) Advance() circuit.State {
	return s.sim.Advance()
}

func (s *Session) State() circuit.State {
	return s.sim.Snapshot()
}

func (s *Session) Toggle(sw circuit.Switch) circuit.State {
	x := s.sim.Toggle(sw)
	slog.Debug("Key toggled", "key", sw, "state", circuit.KeyLabel(x.Closed(sw)), "deflection", x.Voltage)
	return x
}

func (s *Session) SetSwitch(sw circuit.Switch, closed bool) circuit.State {
	return s.sim.SetSwitch(sw, closed)
}

// Record takes a reading of the galvanometer against the stopwatch. The
// first reading of a session earns a hint in the chat.
func (s *Session) Record() ledger.Reading {
	x := s.sim.Advance()
	r := s.ledger.Record(x, s.watch.Seconds())
	slog.Info("Reading recorded", "id", r.ID, "t", r.TimeSeconds, "theta0", r.InitialDeflection, "thetat", r.FinalDeflection)

	s.mu.Lock()
	first := !s.tipShown
	s.tipShown = true
	s.mu.Unlock()
	if first {
		s.chat.Note(FirstReadingTip)
	}
	return r
}

func (s *Session) Delete(id ledger.ID) bool {
	ok := s.ledger.Delete(id)
	if ok {
		slog.Info("Reading deleted", "id", id)
	}
	return ok
}

func (s *Session) Reading(id ledger.ID) (ledger.Reading, bool) {
	return s.ledger.Get(id)
}

func (s *Session) Readings() []ledger.Reading {
	return s.ledger.List()
}

// Calculate derives R for one reading using the bench capacitance. A
// reading with no measurable leakage comes back unchanged.
func (s *Session) Calculate(id ledger.ID) (ledger.Reading, error) {
	r, err := s.ledger.Calculate(id, s.cfg.Circuit.Capacitance)
	if err != nil {
		slog.Warn("Calculation rejected", "id", id, "error", err)
		return r, err
	}
	if ledger.IsDeferred(r) {
		slog.Debug("No measurable leakage yet", "id", id, "ratio", r.Ratio())
	}
	return r, nil
}

// CalculateAll runs Calculate over every reading and returns the first
// error, leaving the others computed.
func (s *Session) CalculateAll() error {
	var first error
	for _, r := range s.ledger.List() {
		if _, err := s.Calculate(r.ID); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Session) Fit() (analysis.Fit, error) {
	return analysis.FitResistance(s.ledger.List(), s.cfg.Circuit.Capacitance)
}

// Reset opens both keys, discharges the condenser and clears the readings.
// The stopwatch is a separate instrument and keeps its time.
func (s *Session) Reset() circuit.State {
	x := s.sim.Reset()
	s.ledger.Clear()
	s.trace.Reset()
	s.chat.Note(ResetNote)
	slog.Info("Experiment reset")
	return x
}

// Ask puts a question to the assistant with a fresh bench snapshot.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	return s.chat.Ask(ctx, question, s.ContextSnapshot())
}

// Run drives the frame loop and the stopwatch ticker until ctx is done. The
// two run independently: the stopwatch tick never steps the physics.
func (s *Session) Run(ctx context.Context, onTick func(elapsed string)) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.sim.Run(ctx, s.cfg.FrameInterval())
	})
	g.Go(func() error {
		return s.watch.Run(ctx, func(d time.Duration) {
			if onTick != nil {
				onTick(stopwatch.Format(d))
			}
		})
	})

	return g.Wait()
}
