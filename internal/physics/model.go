package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/condensim/internal/dynamo"
)

// Model is the order-parameter ODE system
//
//	ρ″ = (θ′² - 2π₀θ′ + E²)ρ + P(θ)ρ^l
//	θ″ = -2ρ′(θ′ - π₀)/ρ + Q(θ)ρ^(l-1)
type Model struct {
	params    Params
	potential Potential
}

func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: p, potential: p.Potential()}, nil
}

func (m *Model) Params() Params { return m.params }

func (m *Model) StateDim() int { return dynamo.StateDim }

func (m *Model) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if len(x) != dynamo.StateDim {
		return nil, fmt.Errorf("%w: got %d components", dynamo.ErrDimensionMismatch, len(x))
	}
	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	rho := x[dynamo.Rho]
	if rho <= 0 {
		return nil, &dynamo.SingularityError{Time: t, State: x.Clone()}
	}
	rhoP, theta, thetaP := x[dynamo.RhoPrime], x[dynamo.Theta], x[dynamo.ThetaPrime]
	pi0 := m.params.Coupling()

	rhoL1 := math.Pow(rho, m.params.L-1)
	rhoPP := m.kinetic(thetaP)*rho + m.potential.P(theta)*rhoL1*rho
	thetaPP := -2*rhoP*(thetaP-pi0)/rho + m.potential.Q(theta)*rhoL1

	return dynamo.State{rhoP, rhoPP, thetaP, thetaPP}, nil
}

func (m *Model) kinetic(thetaP float64) float64 {
	e := m.params.E
	return thetaP*thetaP - 2*m.params.Coupling()*thetaP + e*e
}

// Ratio returns X = ρ″/ρ evaluated from the state.
func (m *Model) Ratio(x dynamo.State) float64 {
	return m.RatioAt(x[dynamo.Rho], x[dynamo.Theta], x[dynamo.ThetaPrime])
}

// RatioAt is Ratio for components that may come from different signals.
func (m *Model) RatioAt(rho, theta, thetaP float64) float64 {
	return m.kinetic(thetaP) + m.potential.P(theta)*math.Pow(rho, m.params.L-1)
}

// Terms splits ρ″ into its kinetic part (θ′² - 2π₀θ′ + E²)ρ and its
// potential part P(θ)ρ^l.
func (m *Model) Terms(x dynamo.State) (kinetic, potential float64) {
	rho := x[dynamo.Rho]
	kinetic = m.kinetic(x[dynamo.ThetaPrime]) * rho
	potential = m.potential.P(x[dynamo.Theta]) * math.Pow(rho, m.params.L)
	return kinetic, potential
}

// Diagnostics are the regime checks evaluated at the initial state.
type Diagnostics struct {
	Kinetic      float64
	Potential    float64
	Perturbation float64
	RhoPP        float64
	EpsilonH     float64
}

// Initial evaluates the perturbation parameter kinetic/potential and the
// slow-roll parameter ε_H = 9/2 - 3/2·ρ″ρ/ρ′² at x0.
func (m *Model) Initial(x0 dynamo.State) (Diagnostics, error) {
	if len(x0) != dynamo.StateDim {
		return Diagnostics{}, fmt.Errorf("%w: got %d components", dynamo.ErrDimensionMismatch, len(x0))
	}
	if !x0.IsValid() {
		return Diagnostics{}, dynamo.ErrInvalidState
	}
	if x0[dynamo.Rho] <= 0 {
		return Diagnostics{}, &dynamo.SingularityError{State: x0.Clone()}
	}
	kin, pot := m.Terms(x0)
	d := Diagnostics{
		Kinetic:      kin,
		Potential:    pot,
		Perturbation: kin / pot,
		RhoPP:        kin + pot,
	}
	rhoP := x0[dynamo.RhoPrime]
	d.EpsilonH = 4.5 - 1.5*d.RhoPP*x0[dynamo.Rho]/(rhoP*rhoP)
	return d, nil
}
