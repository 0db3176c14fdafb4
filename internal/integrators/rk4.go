package integrators

import (
	"context"

	"github.com/san-kum/condensim/internal/dynamo"
)

// DefaultSubsteps is the number of RK4 steps per grid interval chosen by ByName.
const DefaultSubsteps = 10

// RK4 is the classic fixed-step fourth order scheme. It takes Substeps
// equal steps between consecutive evaluation times.
type RK4 struct {
	Substeps int

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4(substeps int) *RK4 {
	if substeps < 1 {
		substeps = 1
	}
	return &RK4{Substeps: substeps}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Integrate(ctx context.Context, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64) (*dynamo.Solution, error) {
	if err := validate(sys, span, y0, tEval); err != nil {
		return nil, err
	}
	r.ensureScratch(len(y0))

	grid := tEval
	if len(grid) == 0 {
		grid = []float64{span.End}
	}
	sol := newSolution(len(tEval))

	t := span.Start
	y := y0.Clone()
	for _, target := range grid {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if target > t {
			dt := (target - t) / float64(r.Substeps)
			for s := 0; s < r.Substeps; s++ {
				next, err := r.Step(sys, y, t, dt)
				sol.Evaluations += 4
				if err != nil {
					return earlyStop(sol, t, err), nil
				}
				sol.Steps++
				y = next
				t += dt
			}
			t = target
		}
		if len(tEval) > 0 {
			record(sol, t, y.Clone())
		}
	}

	if t < span.End {
		dt := (span.End - t) / float64(r.Substeps)
		for s := 0; s < r.Substeps; s++ {
			next, err := r.Step(sys, y, t, dt)
			sol.Evaluations += 4
			if err != nil {
				return earlyStop(sol, t, err), nil
			}
			sol.Steps++
			y = next
			t += dt
		}
	}

	sol.Success = true
	sol.TFinal = span.End
	return sol, nil
}

// Step advances y by one RK4 step of size dt.
func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	k1, err := sys.Derive(x, t)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2, err := sys.Derive(r.scratch, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3, err := sys.Derive(r.scratch, t+dt*0.5)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4, err := sys.Derive(r.scratch, t+dt)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	if !result.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return result, nil
}
