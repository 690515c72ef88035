// Package analysis works on a whole set of readings rather than one.
//
//   - [FitResistance]: least-squares estimate of R from every usable reading
//   - [Summarize]: mean and spread of the per-reading results
//   - [Decay], [TimeToDeflection]: the ideal leakage curve
//
// # Fitting
//
// For a leaking condenser ln(θ0/θt) = t/(RC), a straight line through the
// origin. The fitted slope gives R without trusting any single reading:
//
//	fit, err := analysis.FitResistance(l.List(), 1.0)
//	if err == nil {
//	    fmt.Printf("R = %.2f MΩ (r² %.3f)\n", fit.Resistance, fit.RSquared)
//	}
package analysis
