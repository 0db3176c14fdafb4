// Package physics provides the complex order-parameter model in polar form.
//
// A single [Model] covers both potential families; the family is picked by
// [Params.Variant] rather than by separate types:
//
//   - [VariantDamped]: π₀ phase coupling with the [Trigonometric] potential
//   - [VariantOscillating]: no coupling, [Monomial] potential -λρ^l
//
// The b-term sign of the trigonometric potential is explicit in [Sign].
// [SignPlus] gives P = a·cos(kθ) + b·sin(kθ), [SignMinus] gives
// P = a·cos(kθ) - b·sin(kθ), with Q following the same convention.
//
//	m, err := physics.NewModel(params)
//	if err != nil {
//	    return err
//	}
//	dx, err := m.Derive(x, t)
//	var sing *dynamo.SingularityError
//	if errors.As(err, &sing) {
//	    // ρ reached zero at sing.Time
//	}
package physics
