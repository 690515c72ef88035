package analysis

import "math"

// Decay is the ideal deflection after leaking for t seconds.
func Decay(v0, t, resistance, capacitance float64) float64 {
	return v0 * math.Exp(-t/(resistance*capacitance))
}

// TimeToDeflection is how long the ideal condenser takes to leak from v0
// down to vt.
func TimeToDeflection(v0, vt, resistance, capacitance float64) float64 {
	if vt <= 0 || v0 <= 0 {
		return math.Inf(1)
	}
	return resistance * capacitance * math.Log(v0/vt)
}
