package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/condensim/internal/dynamo"
)

// Variant selects the potential family of the model.
type Variant string

const (
	// VariantDamped couples the phase velocity to π₀ and uses the
	// trigonometric multipole potential.
	VariantDamped Variant = "damped"
	// VariantOscillating drops the π₀ coupling and uses the monomial
	// potential -λρ^l.
	VariantOscillating Variant = "oscillating"
)

// Sign is the convention for the b-term of the trigonometric potential.
type Sign int

const (
	SignPlus  Sign = 1
	SignMinus Sign = -1
)

func (s Sign) String() string {
	switch s {
	case SignPlus:
		return "+"
	case SignMinus:
		return "-"
	default:
		return fmt.Sprintf("Sign(%d)", int(s))
	}
}

func ParseSign(v string) (Sign, error) {
	switch v {
	case "+", "plus", "+1", "1":
		return SignPlus, nil
	case "-", "minus", "-1":
		return SignMinus, nil
	}
	return 0, fmt.Errorf("unknown sign convention: %q", v)
}

// Params is the immutable parameter record of one integration run.
type Params struct {
	Variant Variant
	Pi0     float64
	E       float64
	A       float64
	B       float64
	Lambda  float64
	L       float64
	Sign    Sign
}

func (p Params) Validate() error {
	switch p.Variant {
	case VariantDamped:
		if p.Sign != SignPlus && p.Sign != SignMinus {
			return fmt.Errorf("%w: sign must be +1 or -1, got %d", dynamo.ErrParameterBounds, p.Sign)
		}
	case VariantOscillating:
	default:
		return fmt.Errorf("%w: unknown variant %q", dynamo.ErrParameterBounds, p.Variant)
	}
	for name, v := range p.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrParameterBounds, name)
		}
	}
	return nil
}

// Values returns the scalar parameters by name.
func (p Params) Values() map[string]float64 {
	return map[string]float64{
		"pi0":    p.Pi0,
		"E":      p.E,
		"a":      p.A,
		"b":      p.B,
		"lambda": p.Lambda,
		"l":      p.L,
	}
}

// Names lists the settable parameter names in a stable order.
func Names() []string {
	names := make([]string, 0, 6)
	for k := range (Params{}).Values() {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// With returns a copy of p with one named parameter replaced.
func (p Params) With(name string, value float64) (Params, error) {
	switch name {
	case "pi0":
		p.Pi0 = value
	case "E":
		p.E = value
	case "a":
		p.A = value
	case "b":
		p.B = value
	case "lambda":
		p.Lambda = value
	case "l":
		p.L = value
	default:
		return p, fmt.Errorf("unknown param: %s", name)
	}
	return p, nil
}

// Coupling returns the effective π₀; the oscillating variant has none.
func (p Params) Coupling() float64 {
	if p.Variant == VariantOscillating {
		return 0
	}
	return p.Pi0
}

func (p Params) Potential() Potential {
	if p.Variant == VariantOscillating {
		return Monomial{Lambda: p.Lambda}
	}
	return Trigonometric{A: p.A, B: p.B, K: p.L + 1, Sign: p.Sign}
}
