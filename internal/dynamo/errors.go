package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrSingularity indicates the modulus reached zero or went negative.
	ErrSingularity = errors.New("dynamo: singular state (rho <= 0)")

	// ErrDiscontinuity indicates the integrator stopped before the end of the
	// requested interval.
	ErrDiscontinuity = errors.New("dynamo: integration stopped before end of interval")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidSpan indicates an empty or reversed integration interval, or
	// evaluation times outside of it.
	ErrInvalidSpan = errors.New("dynamo: invalid integration span")
)

// SingularityError reports the point at which a System could not be
// evaluated because the modulus was not positive.
type SingularityError struct {
	Time  float64
	State State
}

func (e *SingularityError) Error() string {
	rho := 0.0
	if len(e.State) > Rho {
		rho = e.State[Rho]
	}
	return fmt.Sprintf("dynamo: singularity at t=%g (rho=%g)", e.Time, rho)
}

func (e *SingularityError) Unwrap() error {
	return ErrSingularity
}
