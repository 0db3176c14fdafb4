package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/condensim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// Quartic dense output weights: y(t+θh) = y + h·Σ_j k_j·(P[j]·[θ, θ², θ³, θ⁴]).
var denseP = [7][4]float64{
	{1, -8048581381.0 / 2820520608.0, 8663915743.0 / 2820520608.0, -12715105075.0 / 11282082432.0},
	{0, 0, 0, 0},
	{0, 131558114200.0 / 32700410799.0, -68118460800.0 / 10900136933.0, 87487479700.0 / 32700410799.0},
	{0, -1754552775.0 / 470086768.0, 14199869525.0 / 1410260304.0, -10690763975.0 / 1880347072.0},
	{0, 127303824393.0 / 49829197408.0, -318862633887.0 / 49829197408.0, 701980252875.0 / 199316789632.0},
	{0, -282668133.0 / 205662961.0, 2019193451.0 / 616988883.0, -1453857185.0 / 822651844.0},
	{0, 40617522.0 / 29380423.0, -110615467.0 / 29380423.0, 69997945.0 / 29380423.0},
}

var dpStages = []struct {
	c float64
	b []float64
}{
	{a2, []float64{b21}},
	{a3, []float64{b31, b32}},
	{a4, []float64{b41, b42, b43}},
	{a5, []float64{b51, b52, b53, b54}},
	{1, []float64{b61, b62, b63, b64, b65}},
}

// RK45 is the adaptive Dormand-Prince 5(4) pair with FSAL, mixed
// absolute/relative error control and quartic dense output onto the
// requested evaluation times.
type RK45 struct {
	Tol dynamo.Tolerance

	safety   float64
	minScale float64
	maxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
	errVec  []float64
	scale   []float64
}

func NewRK45(tol dynamo.Tolerance) *RK45 {
	if tol.Rel <= 0 {
		tol.Rel = dynamo.DefaultTolerance().Rel
	}
	if tol.Abs <= 0 {
		tol.Abs = dynamo.DefaultTolerance().Abs
	}
	return &RK45{
		Tol:      tol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.scratch) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.scratch = make(dynamo.State, n)
		r.errVec = make([]float64, n)
		r.scale = make([]float64, n)
	}
}

func (r *RK45) Integrate(ctx context.Context, sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64) (*dynamo.Solution, error) {
	if err := validate(sys, span, y0, tEval); err != nil {
		return nil, err
	}
	n := len(y0)
	r.ensureScratch(n)
	sol := newSolution(len(tEval))

	t := span.Start
	y := y0.Clone()
	f, err := sys.Derive(y, t)
	sol.Evaluations++
	if err != nil {
		return earlyStop(sol, t, err), nil
	}

	next := 0
	for next < len(tEval) && tEval[next] == t {
		record(sol, t, y.Clone())
		next++
	}

	h := r.initialStep(sys, t, y, f, span.End-t, sol)
	rejectedLast := false
	var stageErr error

	for t < span.End {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		minStep := 10 * spacing(t)
		if r.Tol.MaxStep > 0 && h > r.Tol.MaxStep {
			h = r.Tol.MaxStep
		}
		if h < minStep {
			if stageErr != nil {
				return earlyStop(sol, t, stageErr), nil
			}
			return earlyStop(sol, t, fmt.Errorf("%w: %w: h=%g at t=%g", dynamo.ErrDiscontinuity, dynamo.ErrStepTooSmall, h, t)), nil
		}

		tNew := t + h
		if tNew > span.End {
			tNew = span.End
		}
		step := tNew - t

		yNew, errNorm, err := r.attempt(sys, t, y, f, step, sol)
		if err != nil {
			stageErr = err
			h = step * r.minScale
			rejectedLast = true
			sol.Rejected++
			continue
		}

		if errNorm > 1 || math.IsNaN(errNorm) {
			factor := r.minScale
			if !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
				factor = math.Max(r.minScale, r.safety*math.Pow(errNorm, -0.2))
			}
			h = step * factor
			rejectedLast = true
			sol.Rejected++
			continue
		}

		sol.Steps++
		for next < len(tEval) && tEval[next] <= tNew {
			record(sol, tEval[next], r.dense(y, step, (tEval[next]-t)/step))
			next++
		}

		factor := r.maxScale
		if errNorm > 0 {
			factor = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -0.2))
		}
		if rejectedLast {
			factor = math.Min(1, factor)
		}
		h = step * factor
		rejectedLast = false
		stageErr = nil

		t = tNew
		y = yNew
		f = r.k[6].Clone()
	}

	sol.Success = true
	sol.TFinal = t
	return sol, nil
}

// attempt takes one trial step of size h from (t, y) with f = f(t, y). The
// stage derivatives are left in r.k; r.k[6] is f at the new point.
func (r *RK45) attempt(sys dynamo.System, t float64, y, f dynamo.State, h float64, sol *dynamo.Solution) (dynamo.State, float64, error) {
	n := len(y)
	copy(r.k[0], f)

	for s, st := range dpStages {
		for i := 0; i < n; i++ {
			acc := 0.0
			for j, b := range st.b {
				acc += b * r.k[j][i]
			}
			r.scratch[i] = y[i] + h*acc
		}
		k, err := sys.Derive(r.scratch, t+st.c*h)
		sol.Evaluations++
		if err != nil {
			return nil, 0, err
		}
		copy(r.k[s+1], k)
	}

	yNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*r.k[0][i]+c3*r.k[2][i]+c4*r.k[3][i]+c5*r.k[4][i]+c6*r.k[5][i])
	}
	if !yNew.IsValid() {
		return nil, 0, dynamo.ErrInvalidState
	}

	k7, err := sys.Derive(yNew, t+h)
	sol.Evaluations++
	if err != nil {
		return nil, 0, err
	}
	copy(r.k[6], k7)

	for i := 0; i < n; i++ {
		r.errVec[i] = h * (dc1*r.k[0][i] + dc3*r.k[2][i] + dc4*r.k[3][i] + dc5*r.k[4][i] + dc6*r.k[5][i] + dc7*r.k[6][i])
		r.scale[i] = r.Tol.Abs + r.Tol.Rel*math.Max(math.Abs(y[i]), math.Abs(yNew[i]))
	}
	return yNew, rmsNorm(r.errVec, r.scale), nil
}

// dense evaluates the interpolant of the last accepted step at fraction theta.
func (r *RK45) dense(y dynamo.State, h, theta float64) dynamo.State {
	out := y.Clone()
	pow := [4]float64{theta, theta * theta, theta * theta * theta, theta * theta * theta * theta}
	for j := range r.k {
		w := 0.0
		for p := range pow {
			w += denseP[j][p] * pow[p]
		}
		if w == 0 {
			continue
		}
		for i := range out {
			out[i] += h * w * r.k[j][i]
		}
	}
	return out
}

// initialStep picks the first step size from the local scale of the
// solution and its derivatives (Hairer, Nørsett & Wanner, II.4).
func (r *RK45) initialStep(sys dynamo.System, t float64, y, f dynamo.State, length float64, sol *dynamo.Solution) float64 {
	n := len(y)
	scale := make([]float64, n)
	for i := range y {
		scale[i] = r.Tol.Abs + math.Abs(y[i])*r.Tol.Rel
	}
	d0 := rmsNorm(y, scale)
	d1 := rmsNorm(f, scale)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, length)

	y1 := make(dynamo.State, n)
	for i := range y {
		y1[i] = y[i] + h0*f[i]
	}
	f1, err := sys.Derive(y1, t+h0)
	sol.Evaluations++
	if err != nil {
		return h0
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = f1[i] - f[i]
	}
	d2 := rmsNorm(diff, scale) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/5.0)
	}
	return math.Min(math.Min(100*h0, h1), length)
}
