package smoothing

import (
	"fmt"
	"math"
)

// AdaptiveWindows computes W(i) = round(factor/|Δphase(i)|) with Δphase the
// forward difference (backward at the last index). Windows are forced odd
// by rounding up and clamped to [1, 2N+1]; a zero or non-finite increment
// gets the upper bound, which covers the whole signal from any sample.
func AdaptiveWindows(phase []float64, factor float64) ([]int, error) {
	n := len(phase)
	if n < 2 {
		return nil, fmt.Errorf("%w: phase needs at least 2 samples, got %d", ErrInsufficientSamples, n)
	}
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: window factor must be finite and non-negative, got %g", ErrInvalidWindow, factor)
	}

	upper := 2*n + 1
	windows := make([]int, n)
	for i := range phase {
		var d float64
		if i < n-1 {
			d = phase[i+1] - phase[i]
		} else {
			d = phase[n-1] - phase[n-2]
		}
		windows[i] = windowFor(factor, math.Abs(d), upper)
	}
	return windows, nil
}

func windowFor(factor, dPhase float64, upper int) int {
	if dPhase == 0 || math.IsNaN(dPhase) || math.IsInf(dPhase, 0) {
		return upper
	}
	w := math.Round(factor / dPhase)
	if w >= float64(upper) {
		return upper
	}
	wi := int(w)
	if wi < 1 {
		return 1
	}
	return wi | 1
}

func checkFixed(window, degree, samples int) error {
	if samples == 0 {
		return fmt.Errorf("%w: empty signal", ErrInsufficientSamples)
	}
	if window < 1 || window%2 == 0 {
		return &WindowError{Window: window, Degree: degree, Samples: samples, Reason: "window must be odd and positive"}
	}
	if degree < 0 {
		return &WindowError{Window: window, Degree: degree, Samples: samples, Reason: "degree must be non-negative"}
	}
	return nil
}

// effective shrinks window to the largest odd size that fits n samples.
func effective(window, n int) int {
	if window <= n {
		return window
	}
	if n%2 == 1 {
		return n
	}
	return n - 1
}
