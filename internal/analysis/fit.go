package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/leaklab/internal/ledger"
)

var ErrInsufficientData = errors.New("analysis: need at least two readings with measurable leakage")

type Fit struct {
	Resistance float64 `json:"resistance"`
	Slope      float64 `json:"slope"`
	RSquared   float64 `json:"r_squared"`
	Points     int     `json:"points"`
}

// FitResistance regresses ln(θ0/θt) on t through the origin. Readings that
// the single-reading calculation would reject or defer are skipped.
func FitResistance(readings []ledger.Reading, capacitance float64) (Fit, error) {
	if !(capacitance > 0) {
		return Fit{}, &ledger.InvalidInputError{Field: "capacitance", Value: capacitance, Reason: "must be positive"}
	}

	xs := make([]float64, 0, len(readings))
	ys := make([]float64, 0, len(readings))
	for _, r := range readings {
		if !usable(r) {
			continue
		}
		xs = append(xs, r.TimeSeconds)
		ys = append(ys, math.Log(r.Ratio()))
	}
	if len(xs) < 2 {
		return Fit{Points: len(xs)}, ErrInsufficientData
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, true)
	if !(beta > 0) {
		return Fit{Points: len(xs)}, ErrInsufficientData
	}

	return Fit{
		Resistance: 1 / (beta * capacitance),
		Slope:      beta,
		RSquared:   stat.RSquared(xs, ys, nil, alpha, beta),
		Points:     len(xs),
	}, nil
}

func usable(r ledger.Reading) bool {
	return r.FinalDeflection > ledger.MinDeflection &&
		r.InitialDeflection > 0 &&
		r.TimeSeconds > 0 &&
		!ledger.IsDeferred(r)
}

type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// Summarize reports the calculated resistances recorded so far.
func Summarize(readings []ledger.Reading) Summary {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v, ok := r.Resistance(); ok {
			values = append(values, v)
		}
	}
	switch len(values) {
	case 0:
		return Summary{}
	case 1:
		return Summary{Mean: values[0], N: 1}
	}
	mean, std := stat.MeanStdDev(values, nil)
	return Summary{Mean: mean, StdDev: std, N: len(values)}
}
