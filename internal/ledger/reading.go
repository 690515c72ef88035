package ledger

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadID, s)
	}
	return ID(v), nil
}

// Reading is one timed leakage measurement. Only CalculatedR may change
// after it is recorded.
type Reading struct {
	ID                ID        `json:"id"`
	TimeSeconds       float64   `json:"time_seconds"`
	InitialDeflection float64   `json:"initial_deflection"`
	FinalDeflection   float64   `json:"final_deflection"`
	CalculatedR       *float64  `json:"calculated_r,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

func (r Reading) clone() Reading {
	if r.CalculatedR != nil {
		v := *r.CalculatedR
		r.CalculatedR = &v
	}
	return r
}

// Ratio is θ0/θt, or +Inf when the final deflection is zero.
func (r Reading) Ratio() float64 {
	if r.FinalDeflection == 0 {
		return math.Inf(1)
	}
	return r.InitialDeflection / r.FinalDeflection
}

func (r Reading) Resistance() (float64, bool) {
	if r.CalculatedR == nil {
		return 0, false
	}
	return *r.CalculatedR, true
}

// RoundedR is the calculated resistance at display precision.
func (r Reading) RoundedR() (float64, bool) {
	v, ok := r.Resistance()
	if !ok {
		return 0, false
	}
	scale := math.Pow(10, DisplayPrecision)
	return math.Round(v*scale) / scale, true
}

func (r Reading) DisplayR() string {
	v, ok := r.Resistance()
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', DisplayPrecision, 64)
}
