package fit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const defaultMaxIterations = 2000

// ExpOffsetConfig carries the initial guess [a, b, c] for ExpOffset.
type ExpOffsetConfig struct {
	Guess         [3]float64
	MaxIterations int
}

// ExpOffset fits y = a·exp(b·x) + c by nonlinear least squares (BFGS on the
// residual sum of squares with its analytic gradient). A run that ends
// without a minimum returns a *NonConvergenceError.
func ExpOffset(x, y []float64, r Range, cfg ExpOffsetConfig) (Result, error) {
	xs, ys, err := selectRange(x, y, r, 3)
	if err != nil {
		return Result{}, err
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	// Scale the objective so convergence thresholds do not depend on the
	// magnitude of y.
	scale := floats.Norm(ys, math.Inf(1))
	if scale == 0 {
		scale = 1
	}
	norm := 1 / (scale * scale * float64(len(xs)))

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b, c := p[0], p[1], p[2]
			sum := 0.0
			for i, xi := range xs {
				res := a*math.Exp(b*xi) + c - ys[i]
				sum += res * res
			}
			return sum * norm
		},
		Grad: func(grad, p []float64) {
			a, b, c := p[0], p[1], p[2]
			grad[0], grad[1], grad[2] = 0, 0, 0
			for i, xi := range xs {
				e := math.Exp(b * xi)
				res := a*e + c - ys[i]
				grad[0] += 2 * res * e
				grad[1] += 2 * res * a * xi * e
				grad[2] += 2 * res
			}
			for k := range grad {
				grad[k] *= norm
			}
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-15,
			Relative:   1e-12,
			Iterations: 50,
		},
	}

	x0 := append([]float64(nil), cfg.Guess[:]...)
	res, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if err != nil || res == nil || res.Status.Early() {
		nc := &NonConvergenceError{Err: err}
		if res != nil {
			nc.Status = res.Status
			if res.X != nil {
				nc.Last = append([]float64(nil), res.X...)
			}
			if nc.Err == nil {
				nc.Err = res.Status.Err()
			}
		}
		return Result{}, nc
	}
	p := res.X
	if floats.HasNaN(p) || math.IsInf(floats.Norm(p, 2), 0) {
		return Result{}, &NonConvergenceError{Last: append([]float64(nil), p...), Status: res.Status}
	}

	n := len(xs)
	j := mat.NewDense(n, 3, nil)
	rss := 0.0
	for i, xi := range xs {
		e := math.Exp(p[1] * xi)
		j.Set(i, 0, e)
		j.Set(i, 1, p[0]*xi*e)
		j.Set(i, 2, 1)
		r := p[0]*e + p[2] - ys[i]
		rss += r * r
	}
	return Result{
		Coefficients: append([]float64(nil), p...),
		Covariance:   covariance(j, rss),
		RSS:          rss,
		N:            n,
	}, nil
}

// GuessExpOffset derives a starting point for ExpOffset from the first,
// middle and last samples of the range.
func GuessExpOffset(x, y []float64, r Range) ([3]float64, error) {
	xs, ys, err := selectRange(x, y, r, 3)
	if err != nil {
		return [3]float64{}, err
	}
	n := len(xs)
	c := ys[n-1]
	a := ys[0] - c
	if a == 0 {
		a = 1
	}
	b := -1 / (xs[n-1] - xs[0])
	mid := n / 2
	if d := (ys[mid] - c) / a; d > 0 && xs[mid] != xs[0] {
		b = math.Log(d) / (xs[mid] - xs[0])
	}
	return [3]float64{a, b, c}, nil
}
