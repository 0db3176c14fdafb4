package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X(k)| for k = 0..N/2 of the mean-removed samples.
func PowerSpectrum(values []float64) []float64 {
	mean := stat.Mean(values, nil)
	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}
	spec := fft.FFTReal(centered)
	ps := make([]float64, len(values)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// DominantFrequency returns the angular frequency of the strongest non-DC
// component of values sampled every dt, refined by parabolic interpolation
// between neighbouring bins.
func DominantFrequency(values []float64, dt float64) (float64, error) {
	n := len(values)
	if n < 4 {
		return 0, fmt.Errorf("%w: need at least 4 samples, got %d", ErrEmptyRange, n)
	}
	if !(dt > 0) {
		return 0, fmt.Errorf("analysis: grid spacing must be positive, got %g", dt)
	}
	ps := PowerSpectrum(values)

	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 || math.IsNaN(ps[peak]) {
		return 0, ErrNoOscillation
	}

	bin := float64(peak)
	if peak+1 < len(ps) {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}
	return 2 * math.Pi * bin / (float64(n) * dt), nil
}

// PhaseFrequency estimates the winding rate of a phase θ sampled every dt
// as the dominant frequency of cos θ. Unlike the spectrum of a growing
// amplitude, cos θ stays bounded, so the peak tracks |ω| and not the trend.
func PhaseFrequency(theta []float64, dt float64) (float64, error) {
	c := make([]float64, len(theta))
	for i, th := range theta {
		c[i] = math.Cos(th)
	}
	return DominantFrequency(c, dt)
}
