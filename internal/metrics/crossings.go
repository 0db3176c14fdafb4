package metrics

import "github.com/san-kum/condensim/internal/dynamo"

// ZeroCrossings counts sign changes of x[index]. Applied to ρ′ it counts
// the turning points of the modulus, where raw ε_H spikes.
type ZeroCrossings struct {
	name  string
	index int
	last  float64
	count int
}

func NewZeroCrossings(name string, index int) *ZeroCrossings {
	return &ZeroCrossings{name: name, index: index}
}

func (z *ZeroCrossings) Name() string { return z.name }

func (z *ZeroCrossings) Observe(x dynamo.State, t float64) {
	v := x[z.index]
	if v == 0 {
		return
	}
	if z.last != 0 && (v > 0) != (z.last > 0) {
		z.count++
	}
	z.last = v
}

func (z *ZeroCrossings) Value() float64 { return float64(z.count) }

func (z *ZeroCrossings) Reset() {
	z.last = 0
	z.count = 0
}
