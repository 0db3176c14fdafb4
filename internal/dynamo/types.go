package dynamo

import (
	"context"
	"math"
)

// Component indices of a State.
const (
	Rho = iota
	RhoPrime
	Theta
	ThetaPrime

	StateDim
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Span is the closed integration interval [Start, End].
type Span struct {
	Start float64
	End   float64
}

func (s Span) Valid() bool {
	return s.End > s.Start && !math.IsInf(s.Start, 0) && !math.IsInf(s.End, 0) &&
		!math.IsNaN(s.Start) && !math.IsNaN(s.End)
}

// Tolerance controls adaptive step acceptance: a step is accepted when the
// scaled error estimate, err / (Abs + Rel*|y|), has RMS norm <= 1.
type Tolerance struct {
	Rel     float64
	Abs     float64
	MaxStep float64 // 0 means unbounded
}

func DefaultTolerance() Tolerance {
	return Tolerance{
		Rel: 1e-3,
		Abs: 1e-6,
	}
}

type Integrator interface {
	Integrate(ctx context.Context, sys System, span Span, y0 State, tEval []float64) (*Solution, error)
}

// Solution is the sampled output of one Integrate call. T and Y hold only
// the evaluation times reached before TFinal.
type Solution struct {
	T       []float64
	Y       []State
	Success bool
	TFinal  float64
	Reason  error

	Steps       int
	Rejected    int
	Evaluations int
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}
