package ledger

import "math"

const (
	// MinDeflection is the smallest final deflection the galvanometer can
	// resolve.
	MinDeflection = 0.1

	// MinRatio below which no measurable leakage has happened yet.
	MinRatio = 1.001

	DisplayPrecision = 2
)

// Calculate derives R = t / (C * ln(θ0/θt)) for one reading and returns a
// copy with CalculatedR set. When the deflection has barely moved the
// calculation is deferred: the reading comes back unchanged and err is nil.
func Calculate(r Reading, capacitance float64) (Reading, error) {
	switch {
	case !(r.FinalDeflection > MinDeflection):
		return r, &InvalidInputError{Field: "final_deflection", Value: r.FinalDeflection, Reason: "deflection too small to measure"}
	case !(r.InitialDeflection > 0):
		return r, &InvalidInputError{Field: "initial_deflection", Value: r.InitialDeflection, Reason: "must be positive"}
	case !(r.TimeSeconds >= 0):
		return r, &InvalidInputError{Field: "time_seconds", Value: r.TimeSeconds, Reason: "must not be negative"}
	case !(capacitance > 0):
		return r, &InvalidInputError{Field: "capacitance", Value: capacitance, Reason: "must be positive"}
	}

	if IsDeferred(r) {
		return r, nil
	}

	v := r.TimeSeconds / (capacitance * math.Log(r.Ratio()))
	out := r.clone()
	out.CalculatedR = &v
	return out, nil
}

// IsDeferred reports whether θ0/θt is still too close to 1 for a
// meaningful result.
func IsDeferred(r Reading) bool {
	return r.Ratio() <= MinRatio
}
