// Package ledger keeps the student's timed readings and derives the
// unknown resistance from them.
package ledger

import (
	"math"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/san-kum/leaklab/internal/circuit"
	"github.com/san-kum/leaklab/internal/clock"
)

// Resolution is the instrument precision readings are taken at. Zero keeps
// the raw value.
type Resolution struct {
	Time       float64
	Deflection float64
}

type Ledger struct {
	mu         sync.RWMutex
	resolution Resolution
	clock      clock.Clock
	lastID     ID
	readings   []Reading
}

func New(res Resolution, clk clock.Clock) *Ledger {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Ledger{
		resolution: res,
		clock:      clk,
		readings:   make([]Reading, 0),
	}
}

// Record snapshots the circuit as a new reading. Ids are never reused, not
// even after Delete or Clear.
func (l *Ledger) Record(x circuit.State, stopwatchSeconds float64) Reading {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	r := Reading{
		ID:                l.lastID,
		TimeSeconds:       quantize(math.Max(0, stopwatchSeconds), l.resolution.Time),
		InitialDeflection: x.MaxVoltage,
		FinalDeflection:   quantize(math.Max(0, x.Voltage), l.resolution.Deflection),
		RecordedAt:        l.clock.Now(),
	}
	l.readings = append(l.readings, r)
	return r.clone()
}

// Delete removes the reading. Unknown ids are ignored.
func (l *Ledger) Delete(id ID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.readings = append(l.readings[:i], l.readings[i+1:]...)
	return true
}

func (l *Ledger) Get(id ID) (Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Reading{}, false
	}
	return l.readings[i].clone(), true
}

// List returns copies in insertion order.
func (l *Ledger) List() []Reading {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return pie.Map(l.readings, Reading.clone)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.readings)
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	l.readings = l.readings[:0]
	l.mu.Unlock()
}

// Calculate runs the resistance calculation on the stored reading. Invalid
// input leaves the ledger as it was.
func (l *Ledger) Calculate(id ID, capacitance float64) (Reading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return Reading{}, ErrNotFound
	}
	out, err := Calculate(l.readings[i], capacitance)
	if err != nil {
		return l.readings[i].clone(), err
	}
	l.readings[i] = out
	return out.clone(), nil
}

func (l *Ledger) indexLocked(id ID) int {
	return pie.FindFirstUsing(l.readings, func(r Reading) bool { return r.ID == id })
}

func quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	inv := 1 / step
	if n := math.Round(inv); math.Abs(inv-n) < 1e-9 {
		return math.Round(v*n) / n
	}
	return math.Round(v/step) * step
}
