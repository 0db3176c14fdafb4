package smoothing

import (
	"fmt"

	"github.com/san-kum/condensim/internal/signal"
)

// Kind names a filter family. The value doubles as the provenance op of the
// signals the filter produces.
type Kind string

const (
	KindMovingAverage         Kind = "moving_average"
	KindSavitzkyGolay         Kind = "savgol"
	KindAdaptiveMovingAverage Kind = "adaptive_moving_average"
	KindAdaptiveSavitzkyGolay Kind = "adaptive_savgol"
)

// Filter is one configurable smoothing stage.
type Filter interface {
	Apply(s signal.Signal) (signal.Signal, error)
}

// Fixed is a fixed-window filter of kind KindMovingAverage or
// KindSavitzkyGolay. Degree is ignored by the moving average.
type Fixed struct {
	Kind   Kind
	Window int
	Degree int
}

func (f Fixed) Apply(s signal.Signal) (signal.Signal, error) {
	switch f.Kind {
	case KindMovingAverage:
		return MovingAverage(s, f.Window)
	case KindSavitzkyGolay:
		return SavitzkyGolay(s, f.Window, f.Degree)
	}
	return signal.Signal{}, fmt.Errorf("smoothing: %q is not a fixed-window filter", f.Kind)
}

func (f Fixed) String() string {
	if f.Kind == KindMovingAverage {
		return fmt.Sprintf("%s(w=%d)", f.Kind, f.Window)
	}
	return fmt.Sprintf("%s(w=%d, d=%d)", f.Kind, f.Window, f.Degree)
}

// Adaptive is a phase-driven filter. Kind may be given in its fixed or
// adaptive spelling.
type Adaptive struct {
	Kind   Kind
	Phase  signal.Signal
	Factor float64
	Degree int
	Mode   Mode
}

func (a Adaptive) Apply(s signal.Signal) (signal.Signal, error) {
	switch a.Kind {
	case KindMovingAverage, KindAdaptiveMovingAverage:
		return AdaptiveMovingAverage(s, a.Phase, a.Factor)
	case KindSavitzkyGolay, KindAdaptiveSavitzkyGolay:
		return AdaptiveSavitzkyGolay(s, a.Phase, a.Factor, a.Degree, a.Mode)
	}
	return signal.Signal{}, fmt.Errorf("smoothing: %q is not an adaptive filter", a.Kind)
}

func (a Adaptive) String() string {
	return fmt.Sprintf("%s(phase=%s, factor=%g, d=%d, %s)", a.Kind, a.Phase.Name(), a.Factor, a.Degree, a.Mode)
}
