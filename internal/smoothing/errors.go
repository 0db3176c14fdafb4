package smoothing

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientSamples = errors.New("smoothing: insufficient samples")
	ErrInvalidWindow       = errors.New("smoothing: invalid window")
	ErrLengthMismatch      = errors.New("smoothing: signal and phase lengths differ")
)

// WindowError describes a window/degree combination that cannot be applied.
type WindowError struct {
	Window  int
	Degree  int
	Samples int
	Reason  string
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("smoothing: invalid window %d (degree %d, %d samples): %s", e.Window, e.Degree, e.Samples, e.Reason)
}

func (e *WindowError) Unwrap() error {
	return ErrInvalidWindow
}
