package smoothing

import (
	"fmt"

	"github.com/san-kum/condensim/internal/signal"
)

// SavitzkyGolay fits a polynomial of the given degree by least squares to
// the odd window centered on each sample and evaluates it at the center.
// The first and last window/2 samples take their values from the
// polynomial fitted to the first and last full window. A window longer than
// the signal shrinks to the largest odd length available; the degree must
// stay below that length.
func SavitzkyGolay(s signal.Signal, window, degree int) (signal.Signal, error) {
	x := s.Values()
	n := len(x)
	if err := checkFixed(window, degree, n); err != nil {
		return signal.Signal{}, err
	}
	eff := effective(window, n)
	if degree >= eff {
		return signal.Signal{}, &WindowError{Window: window, Degree: degree, Samples: n, Reason: "degree must be less than the window"}
	}

	out, err := savgol(x, eff, degree)
	if err != nil {
		return signal.Signal{}, err
	}
	params := map[string]float64{
		"window":           float64(window),
		"degree":           float64(degree),
		"effective_window": float64(eff),
	}
	return signal.Derive(s.Name()+"_sg", out, string(KindSavitzkyGolay), []string{s.Name()}, params), nil
}

// savgol assumes window <= len(x) and degree < window.
func savgol(x []float64, window, degree int) ([]float64, error) {
	n := len(x)
	out := make([]float64, n)
	if degree >= window-1 {
		copy(out, x)
		return out, nil
	}
	h := window / 2

	// Degrees 0 and 1 share the flat centered weights.
	if degree <= 1 {
		p := newPrefix(x)
		for i := h; i < n-h; i++ {
			out[i] = p.mean(i-h, i+h+1)
		}
	} else {
		c, err := centerWeights(window, degree)
		if err != nil {
			return nil, err
		}
		for i := h; i < n-h; i++ {
			out[i] = convolve(c, x[i-h:i+h+1])
		}
	}

	if h == 0 {
		return out, nil
	}
	head, err := fitRange(x, 0, window-1, degree)
	if err != nil {
		return nil, err
	}
	for i := 0; i < h; i++ {
		out[i] = head.at(i)
	}
	tail, err := fitRange(x, n-window, n-1, degree)
	if err != nil {
		return nil, err
	}
	for i := n - h; i < n; i++ {
		out[i] = tail.at(i)
	}
	return out, nil
}

func convolve(c, x []float64) float64 {
	acc := 0.0
	for j, w := range c {
		acc += w * x[j]
	}
	return acc
}

// Mode selects how AdaptiveSavitzkyGolay applies the per-sample windows.
type Mode int

const (
	// ModePerSample fits every sample over its own adaptive window.
	ModePerSample Mode = iota
	// ModeLegacyLastWindow computes every window but smooths the whole
	// signal with the window of the last sample.
	ModeLegacyLastWindow
)

func (m Mode) String() string {
	switch m {
	case ModePerSample:
		return "per_sample"
	case ModeLegacyLastWindow:
		return "legacy_last_window"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "per_sample":
		return ModePerSample, nil
	case "legacy_last_window", "legacy":
		return ModeLegacyLastWindow, nil
	}
	return 0, fmt.Errorf("smoothing: unknown adaptive mode %q", s)
}

// weightCacheSize bounds the per-window coefficient cache.
const weightCacheSize = 64

// AdaptiveSavitzkyGolay smooths with windows from AdaptiveWindows(phase,
// factor). In ModePerSample a sample whose window fits inside the signal
// uses the centered coefficients for that window; near the boundaries the
// polynomial is fitted to the clamped neighborhood and evaluated at the
// sample. A window of at most degree+1 samples leaves the sample unchanged.
func AdaptiveSavitzkyGolay(s, phase signal.Signal, factor float64, degree int, mode Mode) (signal.Signal, error) {
	x := s.Values()
	n := len(x)
	if n != phase.Len() {
		return signal.Signal{}, fmt.Errorf("%w: %s has %d samples, %s has %d", ErrLengthMismatch, s.Name(), n, phase.Name(), phase.Len())
	}
	if degree < 0 {
		return signal.Signal{}, &WindowError{Degree: degree, Samples: n, Reason: "degree must be non-negative"}
	}
	windows, err := AdaptiveWindows(phase.Values(), factor)
	if err != nil {
		return signal.Signal{}, err
	}

	params := windowStats(windows)
	params["factor"] = factor
	params["degree"] = float64(degree)
	params["mode"] = float64(mode)

	var out []float64
	switch mode {
	case ModeLegacyLastWindow:
		last := windows[n-1]
		eff := effective(last, n)
		if degree >= eff {
			return signal.Signal{}, &WindowError{Window: last, Degree: degree, Samples: n, Reason: "degree must be less than the window"}
		}
		out, err = savgol(x, eff, degree)
	case ModePerSample:
		out, err = perSampleSavgol(x, windows, degree)
	default:
		return signal.Signal{}, fmt.Errorf("smoothing: unknown adaptive mode %v", mode)
	}
	if err != nil {
		return signal.Signal{}, err
	}
	return signal.Derive(s.Name()+"_dsg", out, string(KindAdaptiveSavitzkyGolay), []string{s.Name(), phase.Name()}, params), nil
}

func perSampleSavgol(x []float64, windows []int, degree int) ([]float64, error) {
	n := len(x)
	out := make([]float64, n)
	weights := make(map[int][]float64)
	var p *prefix
	var edge polyFit
	haveEdge := false

	for i, w := range windows {
		h := w / 2
		lo, hi := i-h, i+h

		if lo >= 0 && hi < n {
			switch {
			case w <= degree+1:
				out[i] = x[i]
			case degree <= 1:
				if p == nil {
					p = newPrefix(x)
				}
				out[i] = p.mean(lo, hi+1)
			default:
				c, ok := weights[w]
				if !ok {
					var err error
					if c, err = centerWeights(w, degree); err != nil {
						return nil, err
					}
					if len(weights) >= weightCacheSize {
						clear(weights)
					}
					weights[w] = c
				}
				out[i] = convolve(c, x[lo:hi+1])
			}
			continue
		}

		lo, hi = max(lo, 0), min(hi, n-1)
		if hi-lo+1 <= degree+1 {
			out[i] = x[i]
			continue
		}
		if !haveEdge || edge.lo != lo || edge.hi != hi {
			var err error
			if edge, err = fitRange(x, lo, hi, degree); err != nil {
				return nil, err
			}
			haveEdge = true
		}
		out[i] = edge.at(i)
	}
	return out, nil
}
