package experiment

import (
	"fmt"
	"strings"

	"github.com/san-kum/leaklab/internal/circuit"
)

// View is the bench as a front end shows it.
type View struct {
	K1             string  `json:"k1"`
	K2             string  `json:"k2"`
	Phase          string  `json:"phase"`
	Deflection     float64 `json:"deflection"`
	MaxDeflection  float64 `json:"max_deflection"`
	Capacitance    float64 `json:"capacitance"`
	SimTime        float64 `json:"sim_time"`
	Stopwatch      float64 `json:"stopwatch"`
	StopwatchLabel string  `json:"stopwatch_label"`
	Running        bool    `json:"stopwatch_running"`
	Readings       int     `json:"readings"`
	AssistantBusy  bool    `json:"assistant_busy"`
}

func (s *Session) Snapshot() View {
	x := s.sim.Snapshot()
	return View{
		K1:             circuit.KeyLabel(x.K1Closed),
		K2:             circuit.KeyLabel(x.K2Closed),
		Phase:          x.Phase().String(),
		Deflection:     x.Voltage,
		MaxDeflection:  x.MaxVoltage,
		Capacitance:    x.Capacitance,
		SimTime:        x.SimTime,
		Stopwatch:      s.watch.Seconds(),
		StopwatchLabel: s.watch.Format(),
		Running:        s.watch.Running(),
		Readings:       s.ledger.Len(),
		AssistantBusy:  s.chat.Busy(),
	}
}

// ContextSnapshot renders the bench for the assistant prompt. It always
// carries the deflection and its maximum, both keys, the capacitance, the
// reading count and the stopwatch time.
func (s *Session) ContextSnapshot() string {
	x := s.sim.Snapshot()

	var b strings.Builder
	b.WriteString("Simulation status:\n")
	fmt.Fprintf(&b, "- Condenser deflection: %.1f / %.0f divisions\n", x.Voltage, x.MaxVoltage)
	fmt.Fprintf(&b, "- Key K1 (charging): %s\n", circuit.KeyLabel(x.K1Closed))
	fmt.Fprintf(&b, "- Key K2 (leaking): %s\n", circuit.KeyLabel(x.K2Closed))
	fmt.Fprintf(&b, "- Known capacitance: %g µF\n", x.Capacitance)
	if s.cfg.Assistant.ShareHiddenResistance {
		fmt.Fprintf(&b, "- Unknown resistance (hidden from the student): %g MΩ\n", x.Resistance)
	}
	fmt.Fprintf(&b, "- Stopwatch: %.2f s\n", s.watch.Seconds())
	fmt.Fprintf(&b, "- Readings taken: %d\n", s.ledger.Len())
	if r, ok := s.latestResult(); ok {
		fmt.Fprintf(&b, "- Student's latest calculated R: %g MΩ\n", r)
	}
	return b.String()
}

// latestResult is the most recent reading's R at display precision.
func (s *Session) latestResult() (float64, bool) {
	readings := s.ledger.List()
	for i := len(readings) - 1; i >= 0; i-- {
		if v, ok := readings[i].RoundedR(); ok {
			return v, true
		}
	}
	return 0, false
}
