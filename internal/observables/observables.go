// Package observables turns modulus and phase signals into the slow-roll
// parameter ε_H and the equation of state w.
//
// Both observables are affine in the ratio X·ρ²/ρ′², which is singular
// wherever ρ′ crosses zero. An Extractor exposes three independent smoothing
// stages around that division: the numerator X·ρ², the denominator ρ′², and
// the ratio itself.
package observables

import (
	"errors"
	"fmt"

	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/smoothing"
)

var (
	ErrLengthMismatch = errors.New("observables: length mismatch")
	ErrNoModel        = errors.New("observables: no model")
)

// Inputs are the four state components on a common time grid. Each may be
// raw or smoothed.
type Inputs struct {
	Times      signal.Signal
	Rho        signal.Signal
	RhoPrime   signal.Signal
	Theta      signal.Signal
	ThetaPrime signal.Signal
}

func (in Inputs) validate() error {
	n := in.Rho.Len()
	for _, s := range []signal.Signal{in.Times, in.RhoPrime, in.Theta, in.ThetaPrime} {
		if s.Len() != n {
			return fmt.Errorf("%w: %s has %d samples, %s has %d", ErrLengthMismatch, s.Name(), s.Len(), in.Rho.Name(), n)
		}
	}
	return nil
}

// Extractor evaluates the observables for one model. A nil stage is skipped.
type Extractor struct {
	Model *physics.Model

	Numerator   smoothing.Filter
	Denominator smoothing.Filter
	Result      smoothing.Filter
}

// Observables is the output of Compute. All signals share the input length.
type Observables struct {
	Ratio    signal.Signal
	EpsilonH signal.Signal
	EoS      signal.Signal
}

// Ratio returns X·ρ²/ρ′² after every configured stage. An exact zero in the
// denominator yields an infinite or NaN sample.
func (e Extractor) Ratio(in Inputs) (signal.Signal, error) {
	if e.Model == nil {
		return signal.Signal{}, ErrNoModel
	}
	if err := in.validate(); err != nil {
		return signal.Signal{}, err
	}

	num, err := signal.Combine("x_rho2", "x_rho2", []signal.Signal{in.Rho, in.Theta, in.ThetaPrime},
		func(v []float64) float64 {
			return e.Model.RatioAt(v[0], v[1], v[2]) * v[0] * v[0]
		})
	if err != nil {
		return signal.Signal{}, err
	}
	if num, err = stage(e.Numerator, num, "numerator"); err != nil {
		return signal.Signal{}, err
	}

	den := in.RhoPrime.Map("rho_prime_sq", "square", func(v float64) float64 { return v * v })
	if den, err = stage(e.Denominator, den, "denominator"); err != nil {
		return signal.Signal{}, err
	}

	ratio, err := signal.Combine("ratio", "divide", []signal.Signal{num, den}, func(v []float64) float64 {
		return v[0] / v[1]
	})
	if err != nil {
		return signal.Signal{}, err
	}
	return stage(e.Result, ratio, "result")
}

func stage(f smoothing.Filter, s signal.Signal, name string) (signal.Signal, error) {
	if f == nil {
		return s, nil
	}
	out, err := f.Apply(s)
	if err != nil {
		return signal.Signal{}, fmt.Errorf("observables: %s stage: %w", name, err)
	}
	return out, nil
}

// EpsilonH is the slow-roll parameter 9/2 - 3/2·ratio.
func (e Extractor) EpsilonH(in Inputs) (signal.Signal, error) {
	r, err := e.Ratio(in)
	if err != nil {
		return signal.Signal{}, err
	}
	return epsilonH(r), nil
}

// EoS is the equation of state w = 2 - ratio.
func (e Extractor) EoS(in Inputs) (signal.Signal, error) {
	r, err := e.Ratio(in)
	if err != nil {
		return signal.Signal{}, err
	}
	return eos(r), nil
}

// Compute evaluates the ratio once and derives both observables from it.
func (e Extractor) Compute(in Inputs) (Observables, error) {
	r, err := e.Ratio(in)
	if err != nil {
		return Observables{}, err
	}
	return Observables{Ratio: r, EpsilonH: epsilonH(r), EoS: eos(r)}, nil
}

func epsilonH(r signal.Signal) signal.Signal {
	return r.Map("epsilon_h", "epsilon_h", func(v float64) float64 { return 4.5 - 1.5*v })
}

func eos(r signal.Signal) signal.Signal {
	return r.Map("w", "eos", func(v float64) float64 { return 2 - v })
}

// Ratios returns ρ′/ρ and ρ″/ρ, the latter evaluated through the model.
func (e Extractor) Ratios(in Inputs) (rhoPOverRho, rhoPPOverRho signal.Signal, err error) {
	if e.Model == nil {
		return signal.Signal{}, signal.Signal{}, ErrNoModel
	}
	if err := in.validate(); err != nil {
		return signal.Signal{}, signal.Signal{}, err
	}
	rhoPOverRho, err = signal.Combine("rho_prime_over_rho", "divide", []signal.Signal{in.RhoPrime, in.Rho},
		func(v []float64) float64 { return v[0] / v[1] })
	if err != nil {
		return signal.Signal{}, signal.Signal{}, err
	}
	rhoPPOverRho, err = signal.Combine("rho_pp_over_rho", "x_ratio", []signal.Signal{in.Rho, in.Theta, in.ThetaPrime},
		func(v []float64) float64 { return e.Model.RatioAt(v[0], v[1], v[2]) })
	if err != nil {
		return signal.Signal{}, signal.Signal{}, err
	}
	return rhoPOverRho, rhoPPOverRho, nil
}
