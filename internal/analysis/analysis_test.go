package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/condensim/internal/fit"
	"github.com/san-kum/condensim/internal/signal"
)

func TestEstimateOmega(t *testing.T) {
	const n = 1000
	times := floats.Span(make([]float64, n), 0, 10)
	theta := make([]float64, n)
	for i, tm := range times {
		// linear phase with a decaying wobble that the tail fit must ignore
		theta[i] = 3*tm + 0.5 + 0.2*math.Exp(-tm)*math.Sin(20*tm)
	}

	est, err := EstimateOmega(times, signal.New("theta", theta), OmegaConfig{Window: 51, Degree: 1, Range: fit.Range{From: 120}})
	require.NoError(t, err)
	assert.InDelta(t, 3, est.Omega, 1e-3)
	assert.Equal(t, n, est.Smoothed.Len())
	assert.Equal(t, "theta_sg", est.Smoothed.Name())
}

func TestEstimateOmegaErrors(t *testing.T) {
	times := []float64{0, 1, 2}
	_, err := EstimateOmega(times, signal.New("theta", []float64{0, 1}), OmegaConfig{Window: 1})
	assert.ErrorIs(t, err, fit.ErrLengthMismatch)

	_, err = EstimateOmega(times, signal.New("theta", []float64{0, 1, 2}), OmegaConfig{Window: 4})
	assert.Error(t, err)
}

func TestMatchedWindow(t *testing.T) {
	tests := []struct {
		name  string
		omega float64
		dt    float64
		want  int
	}{
		{"period of 100 samples", 2 * math.Pi, 0.01, 101},
		{"negative omega uses magnitude", -2 * math.Pi, 0.01, 101},
		{"odd period", 2 * math.Pi / 0.51, 0.01, 51},
		{"sub-sample period", 1e6, 0.01, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := MatchedWindow(tt.omega, tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w)
		})
	}

	for _, bad := range []float64{0, math.NaN(), math.Inf(1)} {
		_, err := MatchedWindow(bad, 0.01)
		assert.ErrorIs(t, err, ErrNoOscillation)
	}
	_, err := MatchedWindow(1, 0)
	assert.Error(t, err)
}

func TestDominantFrequency(t *testing.T) {
	const n = 1000
	dt := 0.01
	x := make([]float64, n)
	omega := 2 * math.Pi * 7.3
	for i := range x {
		x[i] = 4 + math.Sin(omega*float64(i)*dt)
	}

	got, err := DominantFrequency(x, dt)
	require.NoError(t, err)
	assert.InDelta(t, omega, got, 0.02*omega)

	_, err = DominantFrequency(make([]float64, 16), dt)
	assert.ErrorIs(t, err, ErrNoOscillation)
	_, err = DominantFrequency([]float64{1, 2}, dt)
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestPhaseFrequency(t *testing.T) {
	const n = 1000
	dt := 0.01
	for _, sign := range []float64{1, -1} {
		theta := make([]float64, n)
		rhoPrime := make([]float64, n)
		for i := range theta {
			tm := float64(i) * dt
			theta[i] = sign*(15*tm+0.3*math.Sin(40*tm)) + 0.7
			rhoPrime[i] = math.Exp(tm) * (1 + 0.1*math.Cos(15*tm))
		}

		got, err := PhaseFrequency(theta, dt)
		require.NoError(t, err)
		assert.InDelta(t, 15, got, 0.3)

		// a growing amplitude buries the oscillation under its trend
		trend, err := DominantFrequency(rhoPrime, dt)
		require.NoError(t, err)
		assert.Greater(t, math.Abs(trend-15), 1.0)
	}
}

func TestTimeAverage(t *testing.T) {
	times := floats.Span(make([]float64, 11), 0, 1)
	values := make([]float64, 11)
	for i := range values {
		values[i] = float64(i)
	}

	avg, err := TimeAverage(times, values, 0.3)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, avg, 1e-12)

	_, err = TimeAverage(times, values, -1)
	assert.ErrorIs(t, err, ErrEmptyRange)
}

func TestPortraitASCII(t *testing.T) {
	n := 200
	xs, ys := make([]float64, n), make([]float64, n)
	for i := range xs {
		a := 2 * math.Pi * float64(i) / float64(n)
		xs[i], ys[i] = math.Cos(a), math.Sin(a)
	}
	p, err := NewPortrait(signal.New("rho", xs), signal.New("rho_prime", ys))
	require.NoError(t, err)

	out := p.ASCII(40, 20)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "rho_prime vs rho", lines[0])
	assert.Len(t, lines, 21)
	assert.Contains(t, out, "•")
	assert.Contains(t, out, "│")

	_, err = NewPortrait(signal.New("a", xs), signal.New("b", ys[:10]))
	assert.ErrorIs(t, err, signal.ErrLengthMismatch)
}

func TestStroboscopic(t *testing.T) {
	n := 2101
	times := floats.Span(make([]float64, n), 0, 10.5)
	ph, rho := make([]float64, n), make([]float64, n)
	for i, tm := range times {
		ph[i] = 2 * math.Pi * tm
		rho[i] = math.Exp(-0.3*tm) * (1 + 0.2*math.Sin(ph[i]))
	}

	ts, vs, err := Stroboscopic(times, signal.New("theta", ph), signal.New("rho", rho))
	require.NoError(t, err)
	require.Len(t, ts, 10)
	for i := range ts {
		assert.InDelta(t, float64(i+1), ts[i], 1e-6)
	}

	res, err := fit.Exponential(ts, vs, fit.Range{})
	require.NoError(t, err)
	assert.InDelta(t, -0.3, res.Slope(), 1e-3)
}
