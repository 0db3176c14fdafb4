package fit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

var (
	ErrTooFewPoints   = errors.New("fit: too few points")
	ErrInvalidDomain  = errors.New("fit: non-positive value in log domain")
	ErrLengthMismatch = errors.New("fit: x and y lengths differ")
	ErrInvalidRange   = errors.New("fit: invalid range")
	ErrNonConvergence = errors.New("fit: nonlinear fit did not converge")
)

// NonConvergenceError reports a nonlinear fit that stopped without a
// minimum. Last holds the final parameters tried, when the optimizer got
// that far.
type NonConvergenceError struct {
	Last   []float64
	Status optimize.Status
	Err    error
}

func (e *NonConvergenceError) Error() string {
	msg := fmt.Sprintf("fit: nonlinear fit did not converge (status %v", e.Status)
	if e.Last != nil {
		msg += fmt.Sprintf(", last %v", e.Last)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + ")"
}

func (e *NonConvergenceError) Unwrap() error {
	return ErrNonConvergence
}
