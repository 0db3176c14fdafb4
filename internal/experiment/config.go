package experiment

import (
	"fmt"

	"github.com/san-kum/condensim/internal/config"
	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/fit"
	"github.com/san-kum/condensim/internal/observables"
	"github.com/san-kum/condensim/internal/perturbation"
	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/smoothing"
)

// Smoothing holds the settings shared by every filter of a run.
type Smoothing struct {
	Window int
	Degree int
	Factor float64
	Mode   smoothing.Mode
}

// Stages names the filter of each observable stage; empty skips it.
type Stages struct {
	Numerator   smoothing.Kind
	Denominator smoothing.Kind
	Result      smoothing.Kind
}

type Frequency struct {
	Enabled bool
	Window  int
	Degree  int
	Range   fit.Range
}

type Decay struct {
	Enabled   bool
	Degree    int
	Range     fit.Range
	ExpOffset bool
}

type Average struct {
	Enabled bool
	Stop    float64
}

// Config is the immutable description of one run. Perturbation is nil when
// the overlay is off.
type Config struct {
	Name         string
	Params       physics.Params
	Initial      dynamo.State
	Span         dynamo.Span
	Points       int
	Method       string
	Tolerance    dynamo.Tolerance
	Smoothing    Smoothing
	Feeds        observables.Feeds
	Stages       Stages
	Frequency    Frequency
	Decay        Decay
	Average      Average
	Perturbation *perturbation.Params
}

// FromConfig converts a file configuration into a run configuration.
func FromConfig(c *config.Config) (Config, error) {
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	sign := physics.SignPlus
	if c.Model.Sign != "" {
		s, err := physics.ParseSign(c.Model.Sign)
		if err != nil {
			return Config{}, err
		}
		sign = s
	}
	mode, err := smoothing.ParseMode(c.Smoothing.Mode)
	if err != nil {
		return Config{}, err
	}

	var feeds observables.Feeds
	for _, f := range []struct {
		name string
		dst  *observables.Source
	}{
		{c.Feeds.Rho, &feeds.Rho},
		{c.Feeds.RhoPrime, &feeds.RhoPrime},
		{c.Feeds.Theta, &feeds.Theta},
		{c.Feeds.ThetaPrime, &feeds.ThetaPrime},
	} {
		src, err := observables.ParseSource(f.name)
		if err != nil {
			return Config{}, err
		}
		*f.dst = src
	}

	cfg := Config{
		Name: c.Name,
		Params: physics.Params{
			Variant: physics.Variant(c.Model.Variant),
			Pi0:     c.Model.Pi0,
			E:       c.Model.E,
			A:       c.Model.A,
			B:       c.Model.B,
			Lambda:  c.Model.Lambda,
			L:       c.Model.L,
			Sign:    sign,
		},
		Initial: dynamo.State{c.Initial.Rho, c.Initial.RhoPrime, c.Initial.Theta, c.Initial.ThetaPrime},
		Span:    dynamo.Span{Start: c.Integration.Start, End: c.Integration.End},
		Points:  c.Integration.Points,
		Method:  c.Integration.Method,
		Tolerance: dynamo.Tolerance{
			Rel:     c.Integration.RelTol,
			Abs:     c.Integration.AbsTol,
			MaxStep: c.Integration.MaxStep,
		},
		Smoothing: Smoothing{
			Window: c.Smoothing.Window,
			Degree: c.Smoothing.Degree,
			Factor: c.Smoothing.Factor,
			Mode:   mode,
		},
		Feeds: feeds,
		Stages: Stages{
			Numerator:   smoothing.Kind(c.Stages.Numerator),
			Denominator: smoothing.Kind(c.Stages.Denominator),
			Result:      smoothing.Kind(c.Stages.Result),
		},
		Frequency: Frequency{
			Enabled: c.Frequency.Enabled,
			Window:  c.Frequency.Window,
			Degree:  c.Frequency.Degree,
			Range:   fit.Range{From: c.Frequency.FitFrom, To: c.Frequency.FitTo},
		},
		Decay: Decay{
			Enabled:   c.Decay.Enabled,
			Degree:    c.Decay.Degree,
			Range:     fit.Range{From: c.Decay.FitFrom, To: c.Decay.FitTo},
			ExpOffset: c.Decay.ExpOffset,
		},
		Average: Average{Enabled: c.Average.Enabled, Stop: c.Average.Stop},
	}
	if c.Perturbation.Enabled {
		cfg.Perturbation = &perturbation.Params{C2: c.Perturbation.C2, D1: c.Perturbation.D1, D2: c.Perturbation.D2}
	}
	return cfg, nil
}

// Initial-state names accepted by With in addition to the model parameters.
const (
	ParamRho0        = "rho0"
	ParamRhoPrime0   = "rho_prime0"
	ParamTheta0      = "theta0"
	ParamThetaPrime0 = "theta_prime0"
)

// With returns a copy of c with one model parameter or initial value
// replaced.
func (c Config) With(name string, value float64) (Config, error) {
	c.Initial = c.Initial.Clone()
	if len(c.Initial) != dynamo.StateDim {
		return c, fmt.Errorf("%w: initial state has %d components", dynamo.ErrDimensionMismatch, len(c.Initial))
	}
	switch name {
	case ParamRho0:
		c.Initial[dynamo.Rho] = value
	case ParamRhoPrime0:
		c.Initial[dynamo.RhoPrime] = value
	case ParamTheta0:
		c.Initial[dynamo.Theta] = value
	case ParamThetaPrime0:
		c.Initial[dynamo.ThetaPrime] = value
	default:
		p, err := c.Params.With(name, value)
		if err != nil {
			return c, err
		}
		c.Params = p
	}
	return c, nil
}

// Vary returns one copy of base per value of the named parameter.
func Vary(base Config, name string, values []float64) ([]Config, error) {
	out := make([]Config, len(values))
	for i, v := range values {
		c, err := base.With(name, v)
		if err != nil {
			return nil, err
		}
		c.Name = fmt.Sprintf("%s[%s=%g]", base.Name, name, v)
		out[i] = c
	}
	return out, nil
}
