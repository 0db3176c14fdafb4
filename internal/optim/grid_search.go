// Package optim searches configuration space for the values that minimize
// a scalar of the experiment report.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/condensim/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no candidate produced a finite objective")

// Objective scores one configuration; lower is better.
type Objective func(ctx context.Context, cfg experiment.Config) (float64, error)

// InitialScalar scores a configuration by one of its initial diagnostics,
// without integrating.
func InitialScalar(name string) Objective {
	return func(_ context.Context, cfg experiment.Config) (float64, error) {
		d, err := experiment.Diagnose(cfg)
		if err != nil {
			return 0, err
		}
		v, ok := d[name]
		if !ok {
			return 0, fmt.Errorf("optim: %s is not an initial diagnostic", name)
		}
		return v, nil
	}
}

// ReportScalar runs the full experiment and reads the named report scalar.
func ReportScalar(name string, logger *slog.Logger) Objective {
	return func(ctx context.Context, cfg experiment.Config) (float64, error) {
		exp, err := experiment.New(cfg, logger)
		if err != nil {
			return 0, err
		}
		rep, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		v, ok := rep.Scalar(name)
		if !ok {
			if derr, failed := rep.Degraded[name]; failed {
				return 0, derr
			}
			return 0, fmt.Errorf("optim: report has no scalar %s", name)
		}
		return v, nil
	}
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Result struct {
	Best      Candidate
	Evaluated int
	Failed    int
	All       []Candidate
}

// GridSearch evaluates every combination of the given parameter values.
// Names are those accepted by experiment.Config.With.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search minimizes objective over the grid. Candidates whose objective fails
// or is NaN are recorded but never selected.
func (g *GridSearch) Search(ctx context.Context, base experiment.Config, objective Objective) (Result, error) {
	res := Result{Best: Candidate{Value: math.Inf(1)}}
	found := false
	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), objective, &res, &found)
	if err != nil {
		return res, err
	}
	if !found {
		return res, ErrNoCandidate
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	cfg experiment.Config,
	current map[string]float64,
	objective Objective,
	res *Result,
	found *bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		c := Candidate{Params: copyParams(current)}
		c.Value, c.Err = objective(ctx, cfg)
		res.Evaluated++
		if c.Err == nil && math.IsNaN(c.Value) {
			c.Err = fmt.Errorf("optim: objective is NaN")
		}
		if c.Err != nil {
			res.Failed++
		} else if !*found || c.Value < res.Best.Value {
			res.Best = c
			*found = true
		}
		res.All = append(res.All, c)
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next, err := cfg.With(name, val)
		if err != nil {
			return err
		}
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, current, objective, res, found); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

func copyParams(m map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
