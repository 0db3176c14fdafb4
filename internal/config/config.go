package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPoints  = 1000
	DefaultEnd     = 10.0
	DefaultRelTol  = 1e-3
	DefaultAbsTol  = 1e-6
	DefaultWindow  = 51
	DefaultDegree  = 1
	DefaultFactor  = 10.0
	DefaultFitFrom = 120
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name         string             `yaml:"name"`
	Model        ModelConfig        `yaml:"model"`
	Initial      InitialConfig      `yaml:"initial"`
	Integration  IntegrationConfig  `yaml:"integration"`
	Smoothing    SmoothingConfig    `yaml:"smoothing"`
	Feeds        FeedsConfig        `yaml:"feeds"`
	Stages       StagesConfig       `yaml:"stages"`
	Frequency    FrequencyConfig    `yaml:"frequency"`
	Decay        DecayConfig        `yaml:"decay"`
	Average      AverageConfig      `yaml:"average"`
	Perturbation PerturbationConfig `yaml:"perturbation"`
}

type ModelConfig struct {
	Variant string  `yaml:"variant"`
	Pi0     float64 `yaml:"pi0"`
	E       float64 `yaml:"E"`
	A       float64 `yaml:"a"`
	B       float64 `yaml:"b"`
	Lambda  float64 `yaml:"lambda"`
	L       float64 `yaml:"l"`
	Sign    string  `yaml:"sign"`
}

type InitialConfig struct {
	Rho        float64 `yaml:"rho"`
	RhoPrime   float64 `yaml:"rho_prime"`
	Theta      float64 `yaml:"theta"`
	ThetaPrime float64 `yaml:"theta_prime"`
}

type IntegrationConfig struct {
	Method  string  `yaml:"method"`
	Start   float64 `yaml:"start"`
	End     float64 `yaml:"end"`
	Points  int     `yaml:"points"`
	RelTol  float64 `yaml:"rtol"`
	AbsTol  float64 `yaml:"atol"`
	MaxStep float64 `yaml:"max_step"`
}

// SmoothingConfig parameterizes every filter referenced by Feeds and Stages.
// Adaptive filters are driven by the raw phase θ.
type SmoothingConfig struct {
	Window int     `yaml:"window"`
	Degree int     `yaml:"degree"`
	Factor float64 `yaml:"factor"`
	Mode   string  `yaml:"mode"`
}

// FeedsConfig names the source of each quantity fed to the observables:
// raw, moving_average, savgol, adaptive_moving_average or adaptive_savgol.
type FeedsConfig struct {
	Rho        string `yaml:"rho"`
	RhoPrime   string `yaml:"rho_prime"`
	Theta      string `yaml:"theta"`
	ThetaPrime string `yaml:"theta_prime"`
}

// StagesConfig names the filter of each optional observable stage. Empty
// disables the stage.
type StagesConfig struct {
	Numerator   string `yaml:"numerator"`
	Denominator string `yaml:"denominator"`
	Result      string `yaml:"result"`
}

type FrequencyConfig struct {
	Enabled bool `yaml:"enabled"`
	Window  int  `yaml:"window"`
	Degree  int  `yaml:"degree"`
	FitFrom int  `yaml:"fit_from"`
	FitTo   int  `yaml:"fit_to"`
}

// DecayConfig fits the decay rate of ρ after smoothing it with a
// Savitzky-Golay filter whose window matches the oscillation period.
type DecayConfig struct {
	Enabled   bool `yaml:"enabled"`
	Degree    int  `yaml:"degree"`
	FitFrom   int  `yaml:"fit_from"`
	FitTo     int  `yaml:"fit_to"`
	ExpOffset bool `yaml:"exp_offset"`
}

type AverageConfig struct {
	Enabled bool    `yaml:"enabled"`
	Stop    float64 `yaml:"stop"`
}

type PerturbationConfig struct {
	Enabled bool    `yaml:"enabled"`
	C2      float64 `yaml:"c2"`
	D1      float64 `yaml:"d1"`
	D2      float64 `yaml:"d2"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Model: ModelConfig{
			Variant: "damped",
			Pi0:     1,
			E:       1,
			A:       1,
			B:       0.5,
			L:       5,
			Sign:    "+",
		},
		Initial: InitialConfig{Rho: 1, RhoPrime: 1, Theta: 0, ThetaPrime: 10},
		Integration: IntegrationConfig{
			Method: "RK45",
			End:    DefaultEnd,
			Points: DefaultPoints,
			RelTol: DefaultRelTol,
			AbsTol: DefaultAbsTol,
		},
		Smoothing: SmoothingConfig{
			Window: DefaultWindow,
			Degree: DefaultDegree,
			Factor: DefaultFactor,
			Mode:   "per_sample",
		},
		Feeds: FeedsConfig{Rho: "raw", RhoPrime: "raw", Theta: "raw", ThetaPrime: "raw"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the structural constraints that do not depend on other
// packages. Parameter bounds and filter names are checked when the
// experiment is built.
func (c *Config) Validate() error {
	in := c.Integration
	if !(in.End > in.Start) {
		return fmt.Errorf("%w: integration span [%g, %g] is empty", ErrInvalid, in.Start, in.End)
	}
	if in.Points < 2 {
		return fmt.Errorf("%w: points must be at least 2, got %d", ErrInvalid, in.Points)
	}
	if in.RelTol < 0 || in.AbsTol < 0 || in.MaxStep < 0 {
		return fmt.Errorf("%w: tolerances must be non-negative", ErrInvalid)
	}
	for name, v := range map[string]float64{
		"rho": c.Initial.Rho, "rho_prime": c.Initial.RhoPrime,
		"theta": c.Initial.Theta, "theta_prime": c.Initial.ThetaPrime,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: initial %s is not finite", ErrInvalid, name)
		}
	}
	if c.Initial.Rho <= 0 {
		return fmt.Errorf("%w: initial rho must be positive, got %g", ErrInvalid, c.Initial.Rho)
	}
	if c.Smoothing.Window < 1 || c.Smoothing.Window%2 == 0 {
		return fmt.Errorf("%w: smoothing window must be odd and positive, got %d", ErrInvalid, c.Smoothing.Window)
	}
	if c.Smoothing.Factor < 0 {
		return fmt.Errorf("%w: smoothing factor must be non-negative, got %g", ErrInvalid, c.Smoothing.Factor)
	}
	if c.Average.Enabled && c.Average.Stop < in.Start {
		return fmt.Errorf("%w: average stop %g precedes the span", ErrInvalid, c.Average.Stop)
	}
	return nil
}
