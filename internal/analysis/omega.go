package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/condensim/internal/fit"
	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/smoothing"
)

var (
	ErrNoOscillation = errors.New("analysis: no oscillation (omega is zero or not finite)")
	ErrEmptyRange    = errors.New("analysis: no samples in range")
)

// OmegaConfig controls EstimateOmega: θ is smoothed with a Savitzky-Golay
// filter of Window and Degree, then fitted linearly over Range.
type OmegaConfig struct {
	Window int
	Degree int
	Range  fit.Range
}

type OmegaEstimate struct {
	Omega    float64
	Smoothed signal.Signal
	Fit      fit.Result
}

func EstimateOmega(times []float64, theta signal.Signal, cfg OmegaConfig) (OmegaEstimate, error) {
	if len(times) != theta.Len() {
		return OmegaEstimate{}, fmt.Errorf("%w: %d times, %d phase samples", fit.ErrLengthMismatch, len(times), theta.Len())
	}
	smoothed, err := smoothing.SavitzkyGolay(theta, cfg.Window, cfg.Degree)
	if err != nil {
		return OmegaEstimate{}, fmt.Errorf("smooth phase: %w", err)
	}
	res, err := fit.Linear(times, smoothed.Values(), cfg.Range)
	if err != nil {
		return OmegaEstimate{}, fmt.Errorf("fit phase: %w", err)
	}
	return OmegaEstimate{Omega: res.Slope(), Smoothed: smoothed, Fit: res}, nil
}

// MatchedWindow returns the odd window W = round(2π/|ω|/dt), at least 1.
func MatchedWindow(omega, dt float64) (int, error) {
	if omega == 0 || math.IsNaN(omega) || math.IsInf(omega, 0) {
		return 0, fmt.Errorf("%w: omega=%g", ErrNoOscillation, omega)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("analysis: grid spacing must be positive, got %g", dt)
	}
	w := math.Round(2 * math.Pi / math.Abs(omega) / dt)
	if w >= math.MaxInt32 {
		return math.MaxInt32, nil
	}
	wi := int(w)
	if wi < 1 {
		return 1, nil
	}
	return wi | 1, nil
}
