package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/signal"
)

// Config selects the evaluation grid. Times, when set, is used as is;
// otherwise Points samples are spread uniformly over Span.
type Config struct {
	Span   dynamo.Span
	Points int
	Times  []float64
}

func (c Config) Grid() []float64 {
	if c.Times != nil {
		return append([]float64(nil), c.Times...)
	}
	grid := floats.Span(make([]float64, c.Points), c.Span.Start, c.Span.End)
	grid[len(grid)-1] = c.Span.End
	return grid
}

// Termination tells whether the integrator reached the end of the span.
type Termination struct {
	Reached bool
	Time    float64
	Reason  error
}

func (t Termination) String() string {
	if t.Reached {
		return "No discontinuity in range!"
	}
	return fmt.Sprintf("Discontinuity! Stopped at: %g (%v)", t.Time, t.Reason)
}

type Result struct {
	Times       []float64
	States      []dynamo.State
	Termination Termination
	Metrics     map[string]float64

	Steps       int
	Rejected    int
	Evaluations int
}

func (r *Result) Len() int { return len(r.Times) }

// Dt is the mean grid spacing.
func (r *Result) Dt() float64 {
	n := len(r.Times)
	if n < 2 {
		return 0
	}
	return (r.Times[n-1] - r.Times[0]) / float64(n-1)
}

// Component extracts one state component as a raw signal.
func (r *Result) Component(idx int, name string) signal.Signal {
	v := make([]float64, len(r.States))
	for i, s := range r.States {
		v[i] = s[idx]
	}
	return signal.Derive(name, v, signal.OpRaw, nil, nil)
}

func (r *Result) Time() signal.Signal {
	return signal.New("chi", r.Times)
}

func (r *Result) Rho() signal.Signal        { return r.Component(dynamo.Rho, "rho") }
func (r *Result) RhoPrime() signal.Signal   { return r.Component(dynamo.RhoPrime, "rho_prime") }
func (r *Result) Theta() signal.Signal      { return r.Component(dynamo.Theta, "theta") }
func (r *Result) ThetaPrime() signal.Signal { return r.Component(dynamo.ThetaPrime, "theta_prime") }
