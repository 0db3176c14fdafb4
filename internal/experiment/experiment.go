// Package experiment runs the full pipeline for one configuration: initial
// diagnostics, integration, frequency and decay estimates, observables and
// time averages. Independent runs are fanned out by Sweep.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/condensim/internal/analysis"
	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/fit"
	"github.com/san-kum/condensim/internal/observables"
	"github.com/san-kum/condensim/internal/perturbation"
	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/sim"
	"github.com/san-kum/condensim/internal/smoothing"
)

// Scalar names written to Report.Scalars.
const (
	ScalarPerturbation0   = "perturbation_0"
	ScalarEpsilonH0       = "epsilonH_0"
	ScalarKinetic0        = "kinetic_0"
	ScalarPotential0      = "potential_0"
	ScalarAbsPotential0   = "abs_potential_0"
	ScalarStoppedAt       = "stopped_at"
	ScalarSamples         = "samples"
	ScalarOmega           = "omega"
	ScalarOmegaStdErr     = "omega_stderr"
	ScalarOmegaSpectral   = "omega_spectral"
	ScalarMatchedWindow   = "matched_window"
	ScalarDecayRate       = "decay_rate"
	ScalarDecayAmplitude  = "decay_amplitude"
	ScalarDecayExpA       = "decay_exp_a"
	ScalarDecayExpB       = "decay_exp_b"
	ScalarDecayExpC       = "decay_exp_c"
	ScalarStrobeDecayRate = "strobe_decay_rate"
	ScalarAvgRhoPOverRho  = "avg_rho_prime_over_rho"
	ScalarAvgRhoPPOverRho = "avg_rho_pp_over_rho"
	ScalarAverageStop     = "average_stop"
)

// Stage names used as keys of Report.Degraded.
const (
	StageFrequency     = "frequency"
	StageSpectrum      = "spectrum"
	StageMatchedWindow = "matched_window"
	StageObservables   = "observables"
	StageDecay         = "decay"
	StageExpOffset     = "decay_exp_offset"
	StageStroboscopic  = "stroboscopic"
	StageAverage       = "average"
	StagePerturbation  = "perturbation"
)

type Experiment struct {
	cfg      Config
	model    *physics.Model
	registry *Registry
	logger   *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	model, err := physics.NewModel(cfg.Params)
	if err != nil {
		return nil, err
	}
	if len(cfg.Initial) != dynamo.StateDim {
		return nil, fmt.Errorf("%w: initial state has %d components", dynamo.ErrDimensionMismatch, len(cfg.Initial))
	}
	reg := NewRegistry()
	for _, k := range []smoothing.Kind{cfg.Stages.Numerator, cfg.Stages.Denominator, cfg.Stages.Result} {
		if k != "" && !reg.HasFilter(k) {
			return nil, fmt.Errorf("unknown filter: %s", k)
		}
	}
	if _, err := reg.GetIntegrator(cfg.Method, cfg.Tolerance); err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:      cfg,
		model:    model,
		registry: reg,
		logger:   logger.With("run", cfg.Name),
	}, nil
}

func (e *Experiment) Config() Config { return e.cfg }

// Run executes the pipeline. Only invalid input, a failing initial state and
// integrator errors are fatal; later stages that fail are recorded in
// Report.Degraded and the remaining stages still run.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	rep := newReport(e.cfg.Name)

	diag, err := diagnose(e.model, e.cfg.Initial)
	if err != nil {
		return nil, err
	}
	for k, v := range diag {
		rep.Scalars[k] = v
	}
	e.logger.Info("initial diagnostics",
		ScalarPerturbation0, diag[ScalarPerturbation0], ScalarEpsilonH0, diag[ScalarEpsilonH0])

	integ, err := e.registry.GetIntegrator(e.cfg.Method, e.cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	simulator := sim.New(e.model, integ, e.logger)
	for _, m := range e.registry.DefaultMetrics(e.model) {
		simulator.AddMetric(m)
	}
	res, err := simulator.Run(ctx, e.cfg.Initial, sim.Config{Span: e.cfg.Span, Points: e.cfg.Points})
	if err != nil {
		return nil, err
	}
	rep.Termination = res.Termination
	rep.Scalars[ScalarStoppedAt] = res.Termination.Time
	rep.Scalars[ScalarSamples] = float64(res.Len())
	for k, v := range res.Metrics {
		rep.Scalars[k] = v
	}

	raw := observables.FromResult(res)
	for _, s := range []signal.Signal{raw.Times, raw.Rho, raw.RhoPrime, raw.Theta, raw.ThetaPrime} {
		rep.addSignal(s)
	}
	if res.Len() < 2 {
		e.logger.Warn("trajectory too short for analysis", "samples", res.Len())
		return rep, nil
	}
	dt := res.Dt()

	window, haveWindow := e.frequency(rep, raw, dt)
	smooth := e.cfg.Smoothing
	if haveWindow {
		smooth.Window = window
	}
	e.observables(rep, raw, smooth)
	if e.cfg.Decay.Enabled {
		e.decay(rep, raw, window, haveWindow)
	}
	if e.cfg.Perturbation != nil {
		e.overlay(rep, raw.Times.Values())
	}
	return rep, nil
}

// Diagnose evaluates the initial-state scalars of cfg without integrating.
func Diagnose(cfg Config) (map[string]float64, error) {
	model, err := physics.NewModel(cfg.Params)
	if err != nil {
		return nil, err
	}
	return diagnose(model, cfg.Initial)
}

func diagnose(m *physics.Model, x0 dynamo.State) (map[string]float64, error) {
	d, err := m.Initial(x0)
	if err != nil {
		return nil, fmt.Errorf("initial diagnostics: %w", err)
	}
	return map[string]float64{
		ScalarPerturbation0: d.Perturbation,
		ScalarEpsilonH0:     d.EpsilonH,
		ScalarKinetic0:      d.Kinetic,
		ScalarPotential0:    d.Potential,
		ScalarAbsPotential0: math.Abs(d.Potential),
	}, nil
}

// frequency estimates ω from the phase and the smoothing window matched to
// one period.
func (e *Experiment) frequency(rep *Report, raw observables.Inputs, dt float64) (int, bool) {
	if !e.cfg.Frequency.Enabled {
		return 0, false
	}
	f := e.cfg.Frequency
	est, err := analysis.EstimateOmega(raw.Times.Values(), raw.Theta, analysis.OmegaConfig{
		Window: f.Window, Degree: f.Degree, Range: f.Range,
	})
	if err != nil {
		rep.degrade(e.logger, StageFrequency, err)
		return 0, false
	}
	rep.Scalars[ScalarOmega] = est.Omega
	rep.Scalars[ScalarOmegaStdErr] = est.Fit.StdErr(0)
	rep.addSignal(est.Smoothed)

	if w, err := analysis.PhaseFrequency(raw.Theta.Values(), dt); err != nil {
		rep.degrade(e.logger, StageSpectrum, err)
	} else {
		rep.Scalars[ScalarOmegaSpectral] = w
	}

	window, err := analysis.MatchedWindow(est.Omega, dt)
	if err != nil {
		rep.degrade(e.logger, StageMatchedWindow, err)
		return 0, false
	}
	rep.Scalars[ScalarMatchedWindow] = float64(window)
	e.logger.Info("matched window", "omega", est.Omega, "window", window, "replaces", e.cfg.Smoothing.Window)
	return window, true
}

func (e *Experiment) filter(kind smoothing.Kind, s Smoothing, phase signal.Signal) (smoothing.Filter, error) {
	if kind == "" {
		return nil, nil
	}
	return e.registry.GetFilter(kind, s, phase)
}

// observables builds feeds and stages from smooth. Fixed-window filters run at
// the matched window when the frequency stage produced one.
func (e *Experiment) observables(rep *Report, raw observables.Inputs, smooth Smoothing) {
	phase := raw.Theta
	filters := make(map[observables.Source]smoothing.Filter)
	for _, src := range observables.Sources() {
		if src == observables.SourceRaw {
			continue
		}
		f, err := e.filter(smoothing.Kind(src), smooth, phase)
		if err != nil {
			rep.degrade(e.logger, StageObservables, err)
			return
		}
		filters[src] = f
	}
	in, err := e.cfg.Feeds.Resolve(raw, filters)
	if err != nil {
		rep.degrade(e.logger, StageObservables, err)
		return
	}
	for _, s := range []signal.Signal{in.Rho, in.RhoPrime, in.Theta, in.ThetaPrime} {
		if !s.IsRaw() {
			rep.addSignal(s)
		}
	}

	ex := observables.Extractor{Model: e.model}
	stages := []struct {
		kind smoothing.Kind
		dst  *smoothing.Filter
	}{
		{e.cfg.Stages.Numerator, &ex.Numerator},
		{e.cfg.Stages.Denominator, &ex.Denominator},
		{e.cfg.Stages.Result, &ex.Result},
	}
	for _, st := range stages {
		f, err := e.filter(st.kind, smooth, phase)
		if err != nil {
			rep.degrade(e.logger, StageObservables, err)
			return
		}
		*st.dst = f
	}

	obs, err := ex.Compute(in)
	if err != nil {
		rep.degrade(e.logger, StageObservables, err)
	} else {
		rep.addSignal(obs.Ratio)
		rep.addSignal(obs.EpsilonH)
		rep.addSignal(obs.EoS)
	}

	first, second, err := ex.Ratios(in)
	if err != nil {
		rep.degrade(e.logger, StageObservables, err)
		return
	}
	rep.addSignal(first)
	rep.addSignal(second)

	if !e.cfg.Average.Enabled {
		return
	}
	times := in.Times.Values()
	a1, err := analysis.TimeAverage(times, first.Values(), e.cfg.Average.Stop)
	if err != nil {
		rep.degrade(e.logger, StageAverage, err)
		return
	}
	a2, err := analysis.TimeAverage(times, second.Values(), e.cfg.Average.Stop)
	if err != nil {
		rep.degrade(e.logger, StageAverage, err)
		return
	}
	rep.Scalars[ScalarAvgRhoPOverRho] = a1
	rep.Scalars[ScalarAvgRhoPPOverRho] = a2
	rep.Scalars[ScalarAverageStop] = e.cfg.Average.Stop
	e.logger.Info("time averages", "stop", e.cfg.Average.Stop, "rho_prime_over_rho", a1, "rho_pp_over_rho", a2)
}

// decay fits ρ smoothed over one oscillation period. When the log-linear fit
// is impossible the offset exponential is used instead.
func (e *Experiment) decay(rep *Report, raw observables.Inputs, window int, haveWindow bool) {
	times := raw.Times.Values()
	d := e.cfg.Decay

	e.stroboscopic(rep, raw)

	if !haveWindow {
		rep.degrade(e.logger, StageDecay, fmt.Errorf("no matched window: %w", analysis.ErrNoOscillation))
		return
	}
	smoothed, err := smoothing.SavitzkyGolay(raw.Rho, window, d.Degree)
	if err != nil {
		rep.degrade(e.logger, StageDecay, err)
		return
	}
	smoothed = smoothed.Named("rho_matched")
	rep.addSignal(smoothed)
	y := smoothed.Values()

	logLinear, err := fit.Exponential(times, y, d.Range)
	if err == nil {
		rep.Scalars[ScalarDecayRate] = logLinear.Slope()
		rep.Scalars[ScalarDecayAmplitude] = math.Exp(logLinear.Intercept())
	} else {
		rep.degrade(e.logger, StageDecay, err)
	}
	if err == nil && !d.ExpOffset {
		return
	}
	if err != nil {
		e.logger.Warn("falling back to offset exponential fit", "err", err)
	}

	guess, gerr := fit.GuessExpOffset(times, y, d.Range)
	if gerr != nil {
		rep.degrade(e.logger, StageExpOffset, gerr)
		return
	}
	off, oerr := fit.ExpOffset(times, y, d.Range, fit.ExpOffsetConfig{Guess: guess})
	if oerr != nil {
		rep.degrade(e.logger, StageExpOffset, oerr)
		return
	}
	rep.Scalars[ScalarDecayExpA] = off.Coefficients[0]
	rep.Scalars[ScalarDecayExpB] = off.Coefficients[1]
	rep.Scalars[ScalarDecayExpC] = off.Coefficients[2]
	if err != nil {
		rep.Scalars[ScalarDecayRate] = off.Coefficients[1]
		delete(rep.Degraded, StageDecay)
	}
}

// stroboscopic fits the decay of ρ sampled once per phase revolution.
func (e *Experiment) stroboscopic(rep *Report, raw observables.Inputs) {
	ts, vs, err := analysis.Stroboscopic(raw.Times.Values(), raw.Theta, raw.Rho)
	if err != nil {
		rep.degrade(e.logger, StageStroboscopic, err)
		return
	}
	res, err := fit.Exponential(ts, vs, fit.Range{})
	if err != nil {
		rep.degrade(e.logger, StageStroboscopic, err)
		return
	}
	rep.Scalars[ScalarStrobeDecayRate] = res.Slope()
}

func (e *Experiment) overlay(rep *Report, times []float64) {
	o, err := perturbation.New(e.cfg.Params, *e.cfg.Perturbation)
	if err != nil {
		rep.degrade(e.logger, StagePerturbation, err)
		return
	}
	rho, eps := o.Signals(times)
	rep.addSignal(rho)
	rep.addSignal(eps)
}
