package smoothing

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/condensim/internal/signal"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func ramp(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func noisy(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = math.Sin(0.3*x) + 0.2*math.Cos(2.1*x) + 0.01*x
	}
	return out
}

func TestMovingAverageIdentity(t *testing.T) {
	in := signal.New("x", noisy(50))
	out, err := MovingAverage(in, 1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in.Values(), out.Values()))
	assert.Equal(t, "x_ma", out.Name())
	assert.Equal(t, string(KindMovingAverage), out.Provenance().Op)
}

func TestMovingAverageCentered(t *testing.T) {
	in := signal.New("x", []float64{1, 2, 3, 4, 5})
	out, err := MovingAverage(in, 3)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]float64{1.5, 2, 3, 4, 4.5}, out.Values(), approx))
}

func TestMovingAverageWindowLongerThanSignal(t *testing.T) {
	in := signal.New("x", []float64{1, 2, 6})
	out, err := MovingAverage(in, 11)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]float64{3, 3, 3}, out.Values(), approx))
}

func TestFixedWindowValidation(t *testing.T) {
	in := signal.New("x", noisy(10))

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"even MA window", func() error { _, err := MovingAverage(in, 4); return err }, ErrInvalidWindow},
		{"zero MA window", func() error { _, err := MovingAverage(in, 0); return err }, ErrInvalidWindow},
		{"empty MA", func() error { _, err := MovingAverage(signal.New("e", nil), 3); return err }, ErrInsufficientSamples},
		{"even SG window", func() error { _, err := SavitzkyGolay(in, 6, 2); return err }, ErrInvalidWindow},
		{"SG degree equals window", func() error { _, err := SavitzkyGolay(in, 5, 5); return err }, ErrInvalidWindow},
		{"SG negative degree", func() error { _, err := SavitzkyGolay(in, 5, -1); return err }, ErrInvalidWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.fn(), tt.want)
		})
	}
}

func TestSavitzkyGolayDegreeAboveAvailablePoints(t *testing.T) {
	in := signal.New("x", []float64{1, 2, 3})
	_, err := SavitzkyGolay(in, 5, 3)
	require.ErrorIs(t, err, ErrInvalidWindow)

	var werr *WindowError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 3, werr.Samples)
	assert.Equal(t, 3, werr.Degree)
}

func TestSavitzkyGolayShrinksWindow(t *testing.T) {
	in := signal.New("x", []float64{0, 1, 4, 9, 16, 25})
	out, err := SavitzkyGolay(in, 11, 2)
	require.NoError(t, err)
	assert.Equal(t, 5.0, out.Provenance().Params["effective_window"])
	assert.Empty(t, cmp.Diff(in.Values(), out.Values(), approx), "quadratic input is reproduced by a degree-2 fit")
}

func TestSavitzkyGolayInterpolation(t *testing.T) {
	in := signal.New("x", noisy(40))
	for _, w := range []int{3, 5, 7} {
		out, err := SavitzkyGolay(in, w, w-1)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(in.Values(), out.Values(), approx), "window %d", w)
	}
}

func TestSavitzkyGolayPreservesPolynomials(t *testing.T) {
	n := 60
	x := make([]float64, n)
	for i := range x {
		u := float64(i) / 10
		x[i] = 2 - 3*u + 0.5*u*u - 0.1*u*u*u
	}
	in := signal.New("cubic", x)

	for _, tt := range []struct{ window, degree int }{{7, 3}, {11, 4}, {21, 6}} {
		out, err := SavitzkyGolay(in, tt.window, tt.degree)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(x, out.Values(), cmpopts.EquateApprox(0, 1e-8)), "w=%d d=%d", tt.window, tt.degree)
	}
}

func TestSavitzkyGolayMatchesKnownCoefficients(t *testing.T) {
	// Classic 5-point quadratic weights: (-3, 12, 17, 12, -3)/35.
	c, err := centerWeights(5, 2)
	require.NoError(t, err)
	want := []float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}
	assert.Empty(t, cmp.Diff(want, c, approx))
}

func TestSavitzkyGolayLinearTrendBetterThanMovingAverage(t *testing.T) {
	x := make([]float64, 101)
	for i := range x {
		x[i] = float64(i) * float64(i) / 100
	}
	in := signal.New("x", x)

	ma, err := MovingAverage(in, 21)
	require.NoError(t, err)
	sg, err := SavitzkyGolay(in, 21, 2)
	require.NoError(t, err)

	maErr, sgErr := 0.0, 0.0
	for i := range x {
		maErr = math.Max(maErr, math.Abs(ma.At(i)-x[i]))
		sgErr = math.Max(sgErr, math.Abs(sg.At(i)-x[i]))
	}
	assert.Less(t, sgErr, 1e-9)
	assert.Greater(t, maErr, 0.1)
}

func TestConstantSignalIsFixedPoint(t *testing.T) {
	const n = 64
	in := signal.New("c", constant(n, 3.7))
	phase := signal.New("theta", noisy(n))
	want := constant(n, 3.7)

	filters := []Filter{
		Fixed{Kind: KindMovingAverage, Window: 1},
		Fixed{Kind: KindMovingAverage, Window: 9},
		Fixed{Kind: KindMovingAverage, Window: 201},
		Fixed{Kind: KindSavitzkyGolay, Window: 9, Degree: 0},
		Fixed{Kind: KindSavitzkyGolay, Window: 9, Degree: 1},
		Fixed{Kind: KindSavitzkyGolay, Window: 15, Degree: 4},
		Fixed{Kind: KindSavitzkyGolay, Window: 201, Degree: 6},
		Adaptive{Kind: KindMovingAverage, Phase: phase, Factor: 2},
		Adaptive{Kind: KindSavitzkyGolay, Phase: phase, Factor: 2, Degree: 2},
		Adaptive{Kind: KindSavitzkyGolay, Phase: phase, Factor: 2, Degree: 2, Mode: ModeLegacyLastWindow},
	}

	for _, f := range filters {
		t.Run(f.(interface{ String() string }).String(), func(t *testing.T) {
			out, err := f.Apply(in)
			require.NoError(t, err)
			require.Equal(t, n, out.Len())
			assert.Empty(t, cmp.Diff(want, out.Values(), approx))
		})
	}
}

func TestAdaptiveWindows(t *testing.T) {
	phase := ramp(20, 0.1)

	tests := []struct {
		name   string
		factor float64
		want   int
	}{
		{"zero factor", 0, 1},
		{"tiny factor", 0.01, 1},
		{"rounds then forces odd", 0.36, 5},
		{"even rounds up to odd", 1, 11},
		{"odd stays", 0.9, 9},
		{"capped", 100, 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := AdaptiveWindows(phase, tt.factor)
			require.NoError(t, err)
			for i := range w {
				assert.Equal(t, tt.want, w[i], "sample %d", i)
			}
		})
	}
}

func TestAdaptiveWindowsEdges(t *testing.T) {
	w, err := AdaptiveWindows([]float64{0, 0, 1, 3}, 2)
	require.NoError(t, err)
	// Flat increment gets the cap 2N+1; the last sample reuses the backward difference.
	assert.Equal(t, []int{9, 3, 1, 1}, w)

	_, err = AdaptiveWindows([]float64{1}, 1)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	_, err = AdaptiveWindows([]float64{1, 2}, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = AdaptiveWindows([]float64{1, 2}, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestAdaptiveWindowsMonotoneInFactor(t *testing.T) {
	phase := noisy(200)
	prev, err := AdaptiveWindows(phase, 0)
	require.NoError(t, err)
	for _, f := range []float64{0.1, 0.5, 1, 2, 5, 10} {
		cur, err := AdaptiveWindows(phase, f)
		require.NoError(t, err)
		for i := range cur {
			assert.GreaterOrEqual(t, cur[i], prev[i], "factor %g sample %d", f, i)
			assert.Equal(t, 1, cur[i]%2)
			assert.GreaterOrEqual(t, cur[i], 1)
		}
		prev = cur
	}
}

func TestAdaptiveFiltersZeroFactorIsIdentity(t *testing.T) {
	in := signal.New("x", noisy(80))
	phase := signal.New("theta", ramp(80, 0.2))

	ma, err := AdaptiveMovingAverage(in, phase, 0)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in.Values(), ma.Values(), approx))

	sg, err := AdaptiveSavitzkyGolay(in, phase, 0, 2, ModePerSample)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(in.Values(), sg.Values()))
}

func TestAdaptiveLengthMismatch(t *testing.T) {
	in := signal.New("x", noisy(10))
	phase := signal.New("theta", ramp(9, 1))

	_, err := AdaptiveMovingAverage(in, phase, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	_, err = AdaptiveSavitzkyGolay(in, phase, 1, 1, ModePerSample)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestAdaptiveSavitzkyGolayLegacyUsesLastWindow(t *testing.T) {
	x := noisy(120)
	in := signal.New("x", x)
	// Phase speeds up so the last window is the smallest.
	ph := make([]float64, len(x))
	for i := range ph {
		ph[i] = 0.001*float64(i*i) + 0.05*float64(i)
	}
	phase := signal.New("theta", ph)

	windows, err := AdaptiveWindows(ph, 2)
	require.NoError(t, err)
	last := windows[len(windows)-1]

	legacy, err := AdaptiveSavitzkyGolay(in, phase, 2, 2, ModeLegacyLastWindow)
	require.NoError(t, err)
	fixed, err := SavitzkyGolay(in, last, 2)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(fixed.Values(), legacy.Values(), approx))
	assert.Equal(t, float64(last), legacy.Provenance().Params["last_window"])

	perSample, err := AdaptiveSavitzkyGolay(in, phase, 2, 2, ModePerSample)
	require.NoError(t, err)
	assert.NotEmpty(t, cmp.Diff(legacy.Values(), perSample.Values(), approx), "modes must differ when windows vary")
}

func TestAdaptiveSavitzkyGolayUniformPhaseMatchesFixedInterior(t *testing.T) {
	x := noisy(150)
	in := signal.New("x", x)
	phase := signal.New("theta", ramp(150, 0.25))
	// factor 2.75 / 0.25 = 11.
	adaptive, err := AdaptiveSavitzkyGolay(in, phase, 2.75, 3, ModePerSample)
	require.NoError(t, err)
	fixed, err := SavitzkyGolay(in, 11, 3)
	require.NoError(t, err)

	for i := 5; i < 145; i++ {
		assert.InDelta(t, fixed.At(i), adaptive.At(i), 1e-9, "sample %d", i)
	}
}

func TestAdaptiveSmoothingTracksChirp(t *testing.T) {
	const n = 3000
	dt := 0.01
	x := make([]float64, n)
	trend := make([]float64, n)
	ph := make([]float64, n)
	for i := range x {
		tm := float64(i) * dt
		ph[i] = 2 * math.Pi * (tm + 0.01*tm*tm)
		trend[i] = 1 + 0.5*tm
		x[i] = trend[i] + 0.3*math.Sin(ph[i])
	}
	in := signal.New("rho", x)
	phase := signal.New("theta", ph)

	ma, err := AdaptiveMovingAverage(in, phase, 2*math.Pi)
	require.NoError(t, err)
	sg, err := AdaptiveSavitzkyGolay(in, phase, 2*math.Pi, 1, ModePerSample)
	require.NoError(t, err)

	for i := 150; i < n-150; i++ {
		assert.InDelta(t, trend[i], ma.At(i), 0.02, "moving average sample %d", i)
		assert.InDelta(t, trend[i], sg.At(i), 0.02, "savgol sample %d", i)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("legacy_last_window")
	require.NoError(t, err)
	assert.Equal(t, ModeLegacyLastWindow, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePerSample, m)
	_, err = ParseMode("bogus")
	assert.Error(t, err)
}

func TestFilterUnknownKind(t *testing.T) {
	in := signal.New("x", noisy(10))
	_, err := Fixed{Kind: KindAdaptiveMovingAverage, Window: 3}.Apply(in)
	assert.Error(t, err)
	_, err = Adaptive{Kind: "median", Phase: in, Factor: 1}.Apply(in)
	assert.Error(t, err)
}
