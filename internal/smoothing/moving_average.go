package smoothing

import (
	"fmt"
	"math"

	"github.com/san-kum/condensim/internal/signal"
)

// prefix answers window means in O(1). Sums are taken relative to the first
// finite sample so constant input comes back exactly; windows that contain
// a non-finite sample fall back to a direct sum.
type prefix struct {
	x         []float64
	base      float64
	sums      []float64
	nonFinite []int
}

func newPrefix(x []float64) *prefix {
	p := &prefix{
		x:         x,
		sums:      make([]float64, len(x)+1),
		nonFinite: make([]int, len(x)+1),
	}
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			p.base = v
			break
		}
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p.sums[i+1] = p.sums[i]
			p.nonFinite[i+1] = p.nonFinite[i] + 1
			continue
		}
		p.sums[i+1] = p.sums[i] + (v - p.base)
		p.nonFinite[i+1] = p.nonFinite[i]
	}
	return p
}

// mean of x[lo:hi].
func (p *prefix) mean(lo, hi int) float64 {
	k := float64(hi - lo)
	if p.nonFinite[hi] != p.nonFinite[lo] {
		sum := 0.0
		for _, v := range p.x[lo:hi] {
			sum += v
		}
		return sum / k
	}
	return p.base + (p.sums[hi]-p.sums[lo])/k
}

// MovingAverage replaces every sample by the mean of the odd window centered
// on it. Near the boundaries the window shrinks to the samples available,
// which also covers windows longer than the signal.
func MovingAverage(s signal.Signal, window int) (signal.Signal, error) {
	x := s.Values()
	n := len(x)
	if err := checkFixed(window, 0, n); err != nil {
		return signal.Signal{}, err
	}
	params := map[string]float64{"window": float64(window)}
	name := s.Name() + "_ma"
	if window == 1 {
		return signal.Derive(name, x, string(KindMovingAverage), []string{s.Name()}, params), nil
	}

	p := newPrefix(x)
	h := window / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = p.mean(max(0, i-h), min(n, i+h+1))
	}
	return signal.Derive(name, out, string(KindMovingAverage), []string{s.Name()}, params), nil
}

// AdaptiveMovingAverage is MovingAverage with the window of each sample
// taken from AdaptiveWindows(phase, factor).
func AdaptiveMovingAverage(s, phase signal.Signal, factor float64) (signal.Signal, error) {
	x := s.Values()
	n := len(x)
	if n != phase.Len() {
		return signal.Signal{}, fmt.Errorf("%w: %s has %d samples, %s has %d", ErrLengthMismatch, s.Name(), n, phase.Name(), phase.Len())
	}
	windows, err := AdaptiveWindows(phase.Values(), factor)
	if err != nil {
		return signal.Signal{}, err
	}

	p := newPrefix(x)
	out := make([]float64, n)
	for i, w := range windows {
		h := w / 2
		out[i] = p.mean(max(0, i-h), min(n, i+h+1))
	}

	params := windowStats(windows)
	params["factor"] = factor
	return signal.Derive(s.Name()+"_dma", out, string(KindAdaptiveMovingAverage), []string{s.Name(), phase.Name()}, params), nil
}

func windowStats(windows []int) map[string]float64 {
	lo, hi := windows[0], windows[0]
	for _, w := range windows {
		lo = min(lo, w)
		hi = max(hi, w)
	}
	return map[string]float64{
		"min_window":  float64(lo),
		"max_window":  float64(hi),
		"last_window": float64(windows[len(windows)-1]),
	}
}
