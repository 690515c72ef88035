// Package stopwatch measures the student's leakage interval. It runs on
// its own tick and is independent of the physics frame loop.
package stopwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/leaklab/internal/clock"
)

const DefaultTick = 100 * time.Millisecond

type Stopwatch struct {
	mu        sync.Mutex
	clock     clock.Clock
	tick      time.Duration
	acc       time.Duration
	startedAt time.Time
	running   bool
}

func New(clk clock.Clock, tick time.Duration) *Stopwatch {
	if clk == nil {
		clk = clock.Real{}
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Stopwatch{clock: clk, tick: tick}
}

func (w *Stopwatch) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.startedAt = w.clock.Now()
	w.running = true
}

func (w *Stopwatch) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.acc += w.sinceStartLocked()
	w.running = false
}

func (w *Stopwatch) Toggle() bool {
	if w.Running() {
		w.Stop()
		return false
	}
	w.Start()
	return true
}

// Reset stops the watch and zeroes it.
func (w *Stopwatch) Reset() {
	w.mu.Lock()
	w.acc = 0
	w.running = false
	w.mu.Unlock()
}

func (w *Stopwatch) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Stopwatch) Tick() time.Duration { return w.tick }

// Elapsed is the measured wall-clock time truncated to the tick.
func (w *Stopwatch) Elapsed() time.Duration {
	w.mu.Lock()
	d := w.acc
	if w.running {
		d += w.sinceStartLocked()
	}
	w.mu.Unlock()
	return d.Truncate(w.tick)
}

func (w *Stopwatch) Seconds() float64 {
	return w.Elapsed().Seconds()
}

func (w *Stopwatch) Format() string {
	return Format(w.Elapsed())
}

func (w *Stopwatch) sinceStartLocked() time.Duration {
	d := w.clock.Now().Sub(w.startedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Run calls notify on every tick while the watch is running, until ctx is
// cancelled.
func (w *Stopwatch) Run(ctx context.Context, notify func(time.Duration)) error {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if notify != nil && w.Running() {
				notify(w.Elapsed())
			}
		}
	}
}

// Format renders mm:ss.d
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d.%d", s/60, s%60, (ms%1000)/100)
}
