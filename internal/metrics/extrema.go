package metrics

import (
	"math"

	"github.com/san-kum/condensim/internal/dynamo"
)

// MinModulus is the smallest ρ seen. A value approaching zero warns of an
// upcoming singularity.
type MinModulus struct {
	name string
	min  float64
}

func NewMinModulus() *MinModulus {
	m := &MinModulus{name: "min_rho"}
	m.Reset()
	return m
}

func (m *MinModulus) Name() string { return m.name }

func (m *MinModulus) Observe(x dynamo.State, t float64) {
	if x[dynamo.Rho] < m.min {
		m.min = x[dynamo.Rho]
	}
}

func (m *MinModulus) Value() float64 {
	if math.IsInf(m.min, 1) {
		return math.NaN()
	}
	return m.min
}

func (m *MinModulus) Reset() { m.min = math.Inf(1) }

// MaxAbs is the largest |x[index]| seen.
type MaxAbs struct {
	name  string
	index int
	max   float64
	seen  bool
}

func NewMaxAbs(name string, index int) *MaxAbs {
	return &MaxAbs{name: name, index: index}
}

func (m *MaxAbs) Name() string { return m.name }

func (m *MaxAbs) Observe(x dynamo.State, t float64) {
	m.seen = true
	if v := math.Abs(x[m.index]); v > m.max {
		m.max = v
	}
}

func (m *MaxAbs) Value() float64 {
	if !m.seen {
		return math.NaN()
	}
	return m.max
}

func (m *MaxAbs) Reset() {
	m.max = 0
	m.seen = false
}
