// Package analysis implements the frequency protocol used before computing
// observables, plus trajectory summaries.
//
//   - [EstimateOmega]: smooth θ, then fit a line over the settled tail; the
//     slope is the asymptotic angular frequency ω
//   - [MatchedWindow]: odd window covering one period 2π/ω on the grid
//   - [DominantFrequency]: peak frequency of a mean-removed signal
//   - [PhaseFrequency]: spectral cross-check of ω from cos θ
//   - [TimeAverage]: mean of a signal over [χ₀, stop]
//   - [NewPortrait]: two-signal phase portrait rendered as text
//
// # Matched smoothing
//
// Smoothing at an arbitrary window aliases the oscillation; smoothing at the
// period removes it:
//
//	est, err := analysis.EstimateOmega(times, theta, cfg)
//	if err != nil {
//	    return err
//	}
//	w, err := analysis.MatchedWindow(est.Omega, dt)
//	rhoSmooth, err := smoothing.SavitzkyGolay(rho, w, degree)
package analysis
