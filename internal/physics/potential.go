package physics

import "math"

// Potential supplies the angular terms of the model: P enters ρ″ as
// P(θ)ρ^l and Q enters θ″ as Q(θ)ρ^(l-1).
type Potential interface {
	P(theta float64) float64
	Q(theta float64) float64
}

// Trigonometric is the multipole potential
//
//	P(θ) = a·cos(kθ) + s·b·sin(kθ)
//	Q(θ) = s·(a·sin(kθ) - s·b·cos(kθ))
//
// with k = l+1 and s the sign convention.
type Trigonometric struct {
	A, B, K float64
	Sign    Sign
}

func (t Trigonometric) P(theta float64) float64 {
	sin, cos := math.Sincos(t.K * theta)
	return t.A*cos + float64(t.Sign)*t.B*sin
}

func (t Trigonometric) Q(theta float64) float64 {
	s := float64(t.Sign)
	sin, cos := math.Sincos(t.K * theta)
	return s * (t.A*sin - s*t.B*cos)
}

// Monomial is the angular-free potential P = -λ, Q = -λθ.
type Monomial struct {
	Lambda float64
}

func (m Monomial) P(float64) float64       { return -m.Lambda }
func (m Monomial) Q(theta float64) float64 { return -m.Lambda * theta }
