package perturbation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/condensim/internal/physics"
)

func overlay(t *testing.T, p Params) Overlay {
	t.Helper()
	o, err := New(physics.Params{Variant: physics.VariantDamped, Pi0: 1, E: 2, A: 10, B: 10, L: 5, Sign: physics.SignMinus}, p)
	require.NoError(t, err)
	return o
}

func TestAmplitude(t *testing.T) {
	assert.InDelta(t, math.Sqrt(math.Sqrt(200)/3), Amplitude(10, 10), 1e-12)
	assert.Zero(t, Amplitude(0, 0))
}

func TestNewRejectsDegenerateParams(t *testing.T) {
	_, err := New(physics.Params{E: 2}, Params{C2: 1})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = New(physics.Params{E: 2, A: 1}, Params{C2: 0})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRhoBar(t *testing.T) {
	o := overlay(t, Params{C2: 4})
	assert.InDelta(t, 0.5, o.RhoBar(0), 1e-12)

	// dρ̄/dt = A/2·ρ̄³
	const h = 1e-6
	at := 0.3 * o.BlowUp()
	numeric := (o.RhoBar(at+h) - o.RhoBar(at-h)) / (2 * h)
	rb := o.RhoBar(at)
	assert.InEpsilon(t, o.A/2*rb*rb*rb, numeric, 1e-6)

	assert.True(t, math.IsNaN(o.RhoBar(2*o.BlowUp())))
}

func TestDeltaRhoAndRho(t *testing.T) {
	o := overlay(t, Params{C2: 1, D1: 0.5, D2: 0.01})
	g1 := 0.5 + 2*4.0/(3*o.A*o.A)
	assert.InDelta(t, g1-4.0/12+0.01, o.DeltaRho(1), 1e-12)
	assert.InDelta(t, 1+o.DeltaRho(1), o.Rho(0), 1e-12)
}

func TestEpsilonH(t *testing.T) {
	o := overlay(t, Params{C2: 1, D2: 0.01})
	assert.InDelta(t, 3*4/(o.A*o.A)-0.72, o.EpsilonH(0), 1e-12)

	// ε_H decays as the background grows.
	assert.Less(t, math.Abs(overlay(t, Params{C2: 1}).EpsilonH(0.5*o.BlowUp())), 3*4/(o.A*o.A))
}

func TestSignals(t *testing.T) {
	o := overlay(t, Params{C2: 1})
	rho, eps := o.Signals([]float64{0, 0.1, 0.2})
	require.Equal(t, 3, rho.Len())
	require.Equal(t, 3, eps.Len())
	assert.Equal(t, "rho_perturbative", rho.Name())
	assert.InDelta(t, o.Rho(0.1), rho.At(1), 1e-12)
	assert.InDelta(t, o.EpsilonH(0.2), eps.At(2), 1e-12)
}
