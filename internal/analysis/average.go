package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/condensim/internal/fit"
)

// TimeAverage is the mean of values over the samples with times[i] <= stop.
// Grid times within a relative 1e-9 of stop count as reached.
func TimeAverage(times, values []float64, stop float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("%w: %d times, %d values", fit.ErrLengthMismatch, len(times), len(values))
	}
	limit := stop + 1e-9*math.Max(1, math.Abs(stop))
	k := 0
	for k < len(times) && times[k] <= limit {
		k++
	}
	if k == 0 {
		return 0, fmt.Errorf("%w: no samples before %g", ErrEmptyRange, stop)
	}
	return stat.Mean(values[:k], nil), nil
}
