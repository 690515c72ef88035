// Package report exports a finished session: readings, the fitted
// resistance, the chat transcript and the deflection trace. Reports are
// write-only.
package report

import (
	"math"
	"time"

	"github.com/san-kum/leaklab/internal/analysis"
	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/experiment"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/trace"
)

type Bench struct {
	MaxDeflection float64 `json:"max_deflection"`
	Capacitance   float64 `json:"capacitance"`
	Resistance    float64 `json:"resistance"`
	ChargeRate    float64 `json:"charge_rate"`
	Integrator    string  `json:"integrator"`
}

// Check compares a reading's stopwatch time with the time the ideal
// condenser on this bench needs to leak down to the same deflection.
type Check struct {
	ID       ledger.ID `json:"id"`
	Measured float64   `json:"measured_time"`
	Ideal    float64   `json:"ideal_time"`
}

type Report struct {
	CreatedAt  time.Time           `json:"created_at"`
	Bench      Bench               `json:"bench"`
	Readings   []ledger.Reading    `json:"readings"`
	Fit        *analysis.Fit       `json:"fit,omitempty"`
	Summary    analysis.Summary    `json:"summary"`
	Checks     []Check             `json:"checks"`
	Transcript []assistant.Message `json:"transcript"`
	Samples    []trace.Sample      `json:"samples"`
}

func Build(s *experiment.Session) *Report {
	cfg := s.Config()
	x := s.State()
	readings := s.Readings()

	rep := &Report{
		CreatedAt: time.Now(),
		Bench: Bench{
			MaxDeflection: x.MaxVoltage,
			Capacitance:   x.Capacitance,
			Resistance:    x.Resistance,
			ChargeRate:    x.ChargeRate,
			Integrator:    cfg.Integrator,
		},
		Readings:   readings,
		Summary:    analysis.Summarize(readings),
		Checks:     checks(readings, x.Resistance, x.Capacitance),
		Transcript: s.Chat().History(),
		Samples:    s.Trace().Samples(),
	}

	if fit, err := s.Fit(); err == nil {
		rep.Fit = &fit
	}
	return rep
}

// checks skips readings whose deflection has leaked away entirely.
func checks(readings []ledger.Reading, resistance, capacitance float64) []Check {
	out := make([]Check, 0, len(readings))
	for _, r := range readings {
		ideal := analysis.TimeToDeflection(r.InitialDeflection, r.FinalDeflection, resistance, capacitance)
		if math.IsInf(ideal, 0) {
			continue
		}
		out = append(out, Check{ID: r.ID, Measured: r.TimeSeconds, Ideal: ideal})
	}
	return out
}
