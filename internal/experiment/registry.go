package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/integrators"
	"github.com/san-kum/condensim/internal/metrics"
	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/smoothing"
)

// FilterFactory builds a filter from the shared smoothing settings. Adaptive
// filters take their windows from phase.
type FilterFactory func(s Smoothing, phase signal.Signal) smoothing.Filter

type Registry struct {
	integrators map[string]func(dynamo.Tolerance) dynamo.Integrator
	filters     map[smoothing.Kind]FilterFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func(dynamo.Tolerance) dynamo.Integrator),
		filters:     make(map[smoothing.Kind]FilterFactory),
	}

	r.integrators["rk45"] = func(tol dynamo.Tolerance) dynamo.Integrator { return integrators.NewRK45(tol) }
	r.integrators["rk4"] = func(dynamo.Tolerance) dynamo.Integrator { return integrators.NewRK4(integrators.DefaultSubsteps) }

	r.filters[smoothing.KindMovingAverage] = func(s Smoothing, _ signal.Signal) smoothing.Filter {
		return smoothing.Fixed{Kind: smoothing.KindMovingAverage, Window: s.Window}
	}
	r.filters[smoothing.KindSavitzkyGolay] = func(s Smoothing, _ signal.Signal) smoothing.Filter {
		return smoothing.Fixed{Kind: smoothing.KindSavitzkyGolay, Window: s.Window, Degree: s.Degree}
	}
	r.filters[smoothing.KindAdaptiveMovingAverage] = func(s Smoothing, phase signal.Signal) smoothing.Filter {
		return smoothing.Adaptive{Kind: smoothing.KindAdaptiveMovingAverage, Phase: phase, Factor: s.Factor}
	}
	r.filters[smoothing.KindAdaptiveSavitzkyGolay] = func(s Smoothing, phase signal.Signal) smoothing.Filter {
		return smoothing.Adaptive{Kind: smoothing.KindAdaptiveSavitzkyGolay, Phase: phase, Factor: s.Factor, Degree: s.Degree, Mode: s.Mode}
	}

	return r
}

// GetIntegrator is case-insensitive; an empty name selects RK45.
func (r *Registry) GetIntegrator(name string, tol dynamo.Tolerance) (dynamo.Integrator, error) {
	key := strings.ToLower(name)
	if key == "" {
		key = strings.ToLower(integrators.MethodRK45)
	}
	fn, ok := r.integrators[key]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(tol), nil
}

func (r *Registry) GetFilter(kind smoothing.Kind, s Smoothing, phase signal.Signal) (smoothing.Filter, error) {
	fn, ok := r.filters[kind]
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", kind)
	}
	return fn(s, phase), nil
}

func (r *Registry) HasFilter(kind smoothing.Kind) bool {
	_, ok := r.filters[kind]
	return ok
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListFilters() []string {
	names := make([]string, 0, len(r.filters))
	for k := range r.filters {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh trajectory observers for one run.
func (r *Registry) DefaultMetrics(m *physics.Model) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewPerturbation(m),
		metrics.NewMinModulus(),
		metrics.NewMaxAbs("max_abs_theta_prime", dynamo.ThetaPrime),
		metrics.NewZeroCrossings("rho_prime_zero_crossings", dynamo.RhoPrime),
	}
}
