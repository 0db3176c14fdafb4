package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Linear fits y = slope·x + intercept over the selected range.
func Linear(x, y []float64, r Range) (Result, error) {
	xs, ys, err := selectRange(x, y, r, 2)
	if err != nil {
		return Result{}, err
	}
	return linear(xs, ys), nil
}

func linear(xs, ys []float64) Result {
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	n := len(xs)
	j := mat.NewDense(n, 2, nil)
	rss := 0.0
	for i := range xs {
		j.Set(i, 0, xs[i])
		j.Set(i, 1, 1)
		res := ys[i] - (slope*xs[i] + intercept)
		rss += res * res
	}
	return Result{
		Coefficients: []float64{slope, intercept},
		Covariance:   covariance(j, rss),
		RSS:          rss,
		N:            n,
	}
}

// Exponential fits y = A·exp(rate·x) by a linear fit to ln y. The result's
// slope is the rate and its intercept is ln A. Every y in range must be
// strictly positive.
func Exponential(x, y []float64, r Range) (Result, error) {
	xs, ys, err := selectRange(x, y, r, 2)
	if err != nil {
		return Result{}, err
	}
	logs := make([]float64, len(ys))
	for i, v := range ys {
		if !(v > 0) {
			return Result{}, fmt.Errorf("%w: y[%d] = %g", ErrInvalidDomain, r.From+i, v)
		}
		logs[i] = math.Log(v)
	}
	return linear(xs, logs), nil
}
