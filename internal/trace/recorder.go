// Package trace keeps a bounded history of the galvanometer deflection for
// graphs and plots.
package trace

import (
	"sync"

	"github.com/san-kum/leaklab/internal/circuit"
)

const DefaultCapacity = 600

type Sample struct {
	Time    float64 `json:"t"`
	Voltage float64 `json:"v"`
}

// Recorder is a sim observer. It keeps at most capacity samples spaced at
// least every seconds apart in sim time.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	every    float64
	samples  []Sample
}

func NewRecorder(capacity int, every float64) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		capacity: capacity,
		every:    every,
		samples:  make([]Sample, 0, capacity),
	}
}

func (r *Recorder) OnStep(x circuit.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.samples); n > 0 && x.SimTime-r.samples[n-1].Time < r.every {
		return
	}
	if len(r.samples) >= r.capacity {
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:len(r.samples)-1]
	}
	r.samples = append(r.samples, Sample{Time: x.SimTime, Voltage: x.Voltage})
}

func (r *Recorder) Samples() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Voltages returns the last n voltages, oldest first. n <= 0 means all.
func (r *Recorder) Voltages(n int) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := 0
	if n > 0 && len(r.samples) > n {
		start = len(r.samples) - n
	}
	out := make([]float64, 0, len(r.samples)-start)
	for _, s := range r.samples[start:] {
		out = append(out, s.Voltage)
	}
	return out
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.samples = r.samples[:0]
	r.mu.Unlock()
}
