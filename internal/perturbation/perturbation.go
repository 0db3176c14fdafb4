// Package perturbation holds the closed-form small-amplitude solution of the
// damped model, used as an overlay to cross-check integrated trajectories.
package perturbation

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/signal"
)

var ErrInvalidParams = errors.New("perturbation: invalid parameters")

// Params are the integration constants of the expansion.
type Params struct {
	C2 float64
	D1 float64
	D2 float64
}

// Amplitude is the leading-order growth rate A = √(√(a²+b²)/3).
func Amplitude(a, b float64) float64 {
	return math.Sqrt(math.Hypot(a, b) / 3)
}

// Overlay evaluates the expansion for one set of model parameters.
type Overlay struct {
	Params
	E float64
	A float64
}

func New(model physics.Params, p Params) (Overlay, error) {
	o := Overlay{Params: p, E: model.E, A: Amplitude(model.A, model.B)}
	if !(o.A > 0) {
		return Overlay{}, fmt.Errorf("%w: amplitude %g from a=%g b=%g", ErrInvalidParams, o.A, model.A, model.B)
	}
	if !(p.C2 > 0) {
		return Overlay{}, fmt.Errorf("%w: c2 must be positive, got %g", ErrInvalidParams, p.C2)
	}
	return o, nil
}

// BlowUp is the time at which the background modulus diverges.
func (o Overlay) BlowUp() float64 { return o.C2 / o.A }

// RhoBar is the background 1/√(c2 - A·t). It is NaN past BlowUp.
func (o Overlay) RhoBar(t float64) float64 {
	return 1 / math.Sqrt(o.C2-o.A*t)
}

// DeltaRho is the first correction g1·ρ̄³ - E²ρ̄⁻³/12 + d2·ρ̄⁻⁵ with
// g1 = d1 + 2E²c2³/(3A²).
func (o Overlay) DeltaRho(rhoBar float64) float64 {
	e2 := o.E * o.E
	g1 := o.D1 + 2*e2*o.C2*o.C2*o.C2/(3*o.A*o.A)
	return g1*math.Pow(rhoBar, 3) - e2*math.Pow(rhoBar, -3)/12 + o.D2*math.Pow(rhoBar, -5)
}

func (o Overlay) Rho(t float64) float64 {
	rb := o.RhoBar(t)
	return rb + o.DeltaRho(rb)
}

// EpsilonH is 3ρ̄⁻⁴E²/A² - 72·d2·ρ̄⁻⁶.
func (o Overlay) EpsilonH(t float64) float64 {
	rb := o.RhoBar(t)
	return 3*math.Pow(rb, -4)*o.E*o.E/(o.A*o.A) - 72*o.D2*math.Pow(rb, -6)
}

// Signals evaluates Rho and EpsilonH on a time grid.
func (o Overlay) Signals(times []float64) (rho, epsilonH signal.Signal) {
	r := make([]float64, len(times))
	e := make([]float64, len(times))
	for i, t := range times {
		r[i] = o.Rho(t)
		e[i] = o.EpsilonH(t)
	}
	params := map[string]float64{"c2": o.C2, "d1": o.D1, "d2": o.D2, "A": o.A}
	rho = signal.Derive("rho_perturbative", r, "perturbative", []string{"chi"}, params)
	epsilonH = signal.Derive("epsilon_h_perturbative", e, "perturbative", []string{"chi"}, params)
	return rho, epsilonH
}
