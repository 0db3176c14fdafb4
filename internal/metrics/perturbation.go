package metrics

import (
	"math"

	"github.com/san-kum/condensim/internal/dynamo"
)

// TermSplitter splits ρ″ into its kinetic and potential parts.
type TermSplitter interface {
	Terms(x dynamo.State) (kinetic, potential float64)
}

// Perturbation tracks the largest |kinetic/potential| seen along a
// trajectory. It stays small while the solution is in the perturbative
// regime.
type Perturbation struct {
	name    string
	terms   TermSplitter
	max     float64
	samples int
}

func NewPerturbation(terms TermSplitter) *Perturbation {
	return &Perturbation{
		name:  "max_perturbation",
		terms: terms,
	}
}

func (p *Perturbation) Name() string { return p.name }

func (p *Perturbation) Observe(x dynamo.State, t float64) {
	kin, pot := p.terms.Terms(x)
	r := math.Abs(kin / pot)
	if math.IsNaN(r) {
		return
	}
	p.samples++
	if r > p.max {
		p.max = r
	}
}

func (p *Perturbation) Value() float64 {
	if p.samples == 0 {
		return math.NaN()
	}
	return p.max
}

func (p *Perturbation) Reset() {
	p.max = 0
	p.samples = 0
}
