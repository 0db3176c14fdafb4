// Package dynamo provides the core primitives shared by the condensate
// simulation pipeline.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: the (ρ, ρ′, θ, θ′) vector of the order-parameter field
//   - [System]: interface for ODE right-hand sides (dX/dχ = f(X, χ))
//   - [Integrator]: drives a System over an evaluation grid
//   - [Solution]: what an Integrator produced, including early stops
//   - [Metric]: observer folded over every accepted sample
//
// # Early termination
//
// Integrators never treat an early stop as an error. A [Solution] with
// Success == false carries the last time reached in TFinal and the cause in
// Reason, which is either a [*SingularityError] or wraps [ErrDiscontinuity]:
//
//	sol, err := integ.Integrate(ctx, model, span, x0, grid)
//	if err != nil {
//	    return err // bad arguments or canceled context
//	}
//	if !sol.Success {
//	    log.Printf("stopped at %g: %v", sol.TFinal, sol.Reason)
//	}
package dynamo
