package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/leaklab/internal/circuit"
)

const DefaultFrameInterval = time.Second / 60

// Observer is notified with every stepped state, in step order.
type Observer interface {
	OnStep(x circuit.State)
}

// Config describes a scripted, fixed-step run. The last step is shortened
// so the run covers Duration exactly.
type Config struct {
	Step     time.Duration
	Duration time.Duration
}

func (c Config) validate() error {
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %s", c.Step)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	return nil
}
