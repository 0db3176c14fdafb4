package config

import (
	"math"
	"sort"
)

var Presets = map[string]*Config{
	// χ ∈ [0, 0.1] from the perturbative regime of the multipole potential.
	"damped": {
		Name: "damped",
		Model: ModelConfig{
			Variant: "damped", Pi0: 1, E: 2, A: 10, B: 10, L: 5, Sign: "-",
		},
		Initial: InitialConfig{
			Rho:        10,
			RhoPrime:   math.Sqrt(math.Sqrt(200)/3) * 1000,
			Theta:      0.13,
			ThetaPrime: 1,
		},
		Integration: IntegrationConfig{Method: "RK45", End: 0.1, Points: 10000, RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
		Smoothing:   SmoothingConfig{Window: DefaultWindow, Degree: DefaultDegree, Factor: DefaultFactor, Mode: "per_sample"},
		Feeds:       FeedsConfig{Rho: "raw", RhoPrime: "raw", Theta: "raw", ThetaPrime: "raw"},
		Stages:      StagesConfig{Denominator: "savgol"},
		Perturbation: PerturbationConfig{
			Enabled: true, C2: 10,
		},
	},
	// Monomial potential over χ ∈ [0, 2] on a fine grid, averaged up to 0.3.
	"oscillating": {
		Name: "oscillating",
		Model: ModelConfig{
			Variant: "oscillating", E: 100, Lambda: 10, L: 5,
		},
		Initial: InitialConfig{
			Rho:        10,
			RhoPrime:   1000,
			Theta:      0,
			ThetaPrime: -math.Sqrt(10) * 100,
		},
		Integration: IntegrationConfig{Method: "RK45", End: 2, Points: 1000000, RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
		Smoothing:   SmoothingConfig{Window: 100051, Degree: DefaultDegree, Factor: DefaultFactor, Mode: "per_sample"},
		Feeds:       FeedsConfig{Rho: "raw", RhoPrime: "raw", Theta: "raw", ThetaPrime: "raw"},
		Average:     AverageConfig{Enabled: true, Stop: 0.3},
	},
	// Phase frequency from a linear fit of smoothed θ, then the decay rate of
	// ρ smoothed over one period. With l = 1 the ρ equation is linear in ρ,
	// so the modulus grows at about √(E²-π₀²) while θ winds at π₀ ≈ ω and
	// the trajectory reaches the end of the span.
	"frequency": {
		Name: "frequency",
		Model: ModelConfig{
			Variant: "damped", Pi0: 3, E: 3.05, A: 1, B: 0.5, L: 1, Sign: "+",
		},
		Initial:     InitialConfig{Rho: 1, RhoPrime: 1, Theta: 0, ThetaPrime: 10},
		Integration: IntegrationConfig{Method: "RK45", End: 10, Points: 1000, RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
		Smoothing:   SmoothingConfig{Window: DefaultWindow, Degree: 0, Factor: 20, Mode: "per_sample"},
		Feeds:       FeedsConfig{Rho: "raw", RhoPrime: "raw", Theta: "raw", ThetaPrime: "raw"},
		Stages:      StagesConfig{Numerator: "savgol", Denominator: "savgol", Result: "savgol"},
		Frequency:   FrequencyConfig{Enabled: true, Window: DefaultWindow, Degree: 1, FitFrom: DefaultFitFrom},
		Decay:       DecayConfig{Enabled: true, Degree: 6, FitFrom: 198, ExpOffset: true},
	},
	// Large modulus with a fast initial phase, over a short span.
	"fast-phase": {
		Name: "fast-phase",
		Model: ModelConfig{
			Variant: "damped", Pi0: 1, E: 2, A: 2.1, B: 2.1, L: 5, Sign: "+",
		},
		Initial:     InitialConfig{Rho: 9, RhoPrime: 729, Theta: -0.13, ThetaPrime: 1},
		Integration: IntegrationConfig{Method: "RK45", End: 0.06, Points: 1000, RelTol: DefaultRelTol, AbsTol: DefaultAbsTol},
		Smoothing:   SmoothingConfig{Window: DefaultWindow, Degree: DefaultDegree, Factor: DefaultFactor, Mode: "per_sample"},
		Feeds:       FeedsConfig{Rho: "raw", RhoPrime: "savgol", Theta: "raw", ThetaPrime: "raw"},
		Stages:      StagesConfig{Numerator: "savgol", Denominator: "savgol", Result: "savgol"},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
