// Package fit extracts trend parameters from sampled signals: linear and
// log-linear least squares, and the three-parameter a·exp(bx)+c model solved
// by nonlinear least squares.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Range selects samples [From, To). To <= 0 means the end of the data.
type Range struct {
	From int
	To   int
}

func (r Range) bounds(n int) (int, int, error) {
	to := r.To
	if to <= 0 {
		to = n
	}
	if r.From < 0 || r.From >= to || to > n {
		return 0, 0, fmt.Errorf("%w: [%d:%d] of %d samples", ErrInvalidRange, r.From, r.To, n)
	}
	return r.From, to, nil
}

func (r Range) String() string {
	if r.To <= 0 {
		return fmt.Sprintf("[%d:]", r.From)
	}
	return fmt.Sprintf("[%d:%d]", r.From, r.To)
}

func selectRange(x, y []float64, r Range, params int) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	lo, hi, err := r.bounds(len(x))
	if err != nil {
		return nil, nil, err
	}
	if hi-lo < params {
		return nil, nil, fmt.Errorf("%w: %d points for %d parameters", ErrTooFewPoints, hi-lo, params)
	}
	return x[lo:hi], y[lo:hi], nil
}

// Result holds fitted coefficients and their covariance estimate.
// Linear fits report [slope, intercept]; ExpOffset reports [a, b, c].
type Result struct {
	Coefficients []float64
	Covariance   *mat.SymDense
	RSS          float64
	N            int
}

func (r Result) Slope() float64     { return r.Coefficients[0] }
func (r Result) Intercept() float64 { return r.Coefficients[1] }

// StdErr is the standard error of coefficient i.
func (r Result) StdErr(i int) float64 {
	if r.Covariance == nil {
		return math.NaN()
	}
	return math.Sqrt(r.Covariance.At(i, i))
}

// covariance returns σ²(JᵀJ)⁻¹ with σ² = rss/(n-p). When n == p or JᵀJ is
// singular the covariance cannot be estimated and every entry is +Inf.
func covariance(j *mat.Dense, rss float64) *mat.SymDense {
	n, p := j.Dims()
	cov := mat.NewSymDense(p, nil)

	var g mat.SymDense
	g.SymOuterK(1, j.T())
	var chol mat.Cholesky
	if n <= p || !chol.Factorize(&g) {
		for a := 0; a < p; a++ {
			for b := a; b < p; b++ {
				cov.SetSym(a, b, math.Inf(1))
			}
		}
		return cov
	}
	if err := chol.InverseTo(cov); err != nil {
		for a := 0; a < p; a++ {
			for b := a; b < p; b++ {
				cov.SetSym(a, b, math.Inf(1))
			}
		}
		return cov
	}
	cov.ScaleSym(rss/float64(n-p), cov)
	return cov
}
