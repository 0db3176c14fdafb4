package integrators

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/condensim/internal/dynamo"
)

// Method tags accepted by ByName.
const (
	MethodRK45 = "RK45"
	MethodRK4  = "RK4"
)

// ByName builds the integrator for a method tag. An empty tag selects RK45.
func ByName(method string, tol dynamo.Tolerance) (dynamo.Integrator, error) {
	switch strings.ToUpper(method) {
	case "", MethodRK45:
		return NewRK45(tol), nil
	case MethodRK4:
		return NewRK4(DefaultSubsteps), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", method)
}

func Methods() []string {
	return []string{MethodRK45, MethodRK4}
}

func validate(sys dynamo.System, span dynamo.Span, y0 dynamo.State, tEval []float64) error {
	if !span.Valid() {
		return fmt.Errorf("%w: [%g, %g]", dynamo.ErrInvalidSpan, span.Start, span.End)
	}
	if len(y0) != sys.StateDim() {
		return fmt.Errorf("%w: state has %d components, system expects %d",
			dynamo.ErrDimensionMismatch, len(y0), sys.StateDim())
	}
	if !y0.IsValid() {
		return dynamo.ErrInvalidState
	}
	if !sort.Float64sAreSorted(tEval) {
		return fmt.Errorf("%w: evaluation times must be ascending", dynamo.ErrInvalidSpan)
	}
	if n := len(tEval); n > 0 && (tEval[0] < span.Start || tEval[n-1] > span.End) {
		return fmt.Errorf("%w: evaluation times outside [%g, %g]", dynamo.ErrInvalidSpan, span.Start, span.End)
	}
	return nil
}

func newSolution(capacity int) *dynamo.Solution {
	return &dynamo.Solution{
		T: make([]float64, 0, capacity),
		Y: make([]dynamo.State, 0, capacity),
	}
}

func record(sol *dynamo.Solution, t float64, y dynamo.State) {
	sol.T = append(sol.T, t)
	sol.Y = append(sol.Y, y)
}

// earlyStop marks sol as stopped at t. Anything other than a singularity is
// reported as a discontinuity.
func earlyStop(sol *dynamo.Solution, t float64, reason error) *dynamo.Solution {
	var sing *dynamo.SingularityError
	if !errors.As(reason, &sing) && !errors.Is(reason, dynamo.ErrDiscontinuity) {
		reason = fmt.Errorf("%w: %w", dynamo.ErrDiscontinuity, reason)
	}
	sol.Success = false
	sol.TFinal = t
	sol.Reason = reason
	return sol
}

// rmsNorm is the root mean square of v[i]/scale[i].
func rmsNorm(v, scale []float64) float64 {
	sum := 0.0
	for i := range v {
		r := v[i] / scale[i]
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

// spacing is the distance from t to the next representable float64.
func spacing(t float64) float64 {
	return math.Nextafter(t, math.Inf(1)) - t
}
