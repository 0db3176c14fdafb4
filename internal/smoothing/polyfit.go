package smoothing

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// usable reports whether a gonum solve produced a result. A mat.Condition
// error only warns about conditioning; the solution is still written.
func usable(err error) bool {
	if err == nil {
		return true
	}
	var c mat.Condition
	return errors.As(err, &c)
}

// polyFit is a least-squares polynomial over x[lo..hi] in the scaled
// coordinate u = (j-mid)/half, so |u| <= 1 on the fitted range.
type polyFit struct {
	lo, hi int
	mid    float64
	half   float64
	beta   []float64
}

func fitRange(x []float64, lo, hi, degree int) (polyFit, error) {
	m := hi - lo + 1
	k := degree + 1
	p := polyFit{lo: lo, hi: hi, mid: float64(lo+hi) / 2, half: max(float64(hi-lo)/2, 1)}

	v := mat.NewDense(m, k, nil)
	y := mat.NewVecDense(m, nil)
	for r := 0; r < m; r++ {
		u := (float64(lo+r) - p.mid) / p.half
		pw := 1.0
		for c := 0; c < k; c++ {
			v.Set(r, c, pw)
			pw *= u
		}
		y.SetVec(r, x[lo+r])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(v, y); !usable(err) {
		return p, &WindowError{Window: m, Degree: degree, Samples: len(x), Reason: "ill-conditioned fit: " + err.Error()}
	}
	p.beta = make([]float64, k)
	for i := range p.beta {
		p.beta[i] = beta.AtVec(i)
	}
	return p, nil
}

func (p polyFit) at(j int) float64 {
	u := (float64(j) - p.mid) / p.half
	acc := 0.0
	for i := len(p.beta) - 1; i >= 0; i-- {
		acc = acc*u + p.beta[i]
	}
	return acc
}

// centerWeights returns the convolution weights that evaluate the
// least-squares polynomial of the given degree at the center of an odd
// window: c = V (VᵀV)⁻¹ e₀.
func centerWeights(window, degree int) ([]float64, error) {
	if degree >= window-1 {
		c := make([]float64, window)
		c[window/2] = 1
		return c, nil
	}
	h := window / 2
	k := degree + 1
	v := mat.NewDense(window, k, nil)
	for r := 0; r < window; r++ {
		u := float64(r-h) / float64(h)
		pw := 1.0
		for c := 0; c < k; c++ {
			v.Set(r, c, pw)
			pw *= u
		}
	}

	var g mat.SymDense
	g.SymOuterK(1, v.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&g); !ok {
		return nil, &WindowError{Window: window, Degree: degree, Reason: "normal equations not positive definite"}
	}
	e0 := mat.NewVecDense(k, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := chol.SolveVecTo(&z, e0); !usable(err) {
		return nil, &WindowError{Window: window, Degree: degree, Reason: err.Error()}
	}

	var c mat.VecDense
	c.MulVec(v, &z)
	out := make([]float64, window)
	for i := range out {
		out[i] = c.AtVec(i)
	}
	return out, nil
}
