package experiment_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/condensim/internal/analysis"
	"github.com/san-kum/condensim/internal/config"
	"github.com/san-kum/condensim/internal/dynamo"
	"github.com/san-kum/condensim/internal/experiment"
	"github.com/san-kum/condensim/internal/fit"
	"github.com/san-kum/condensim/internal/observables"
	"github.com/san-kum/condensim/internal/physics"
	"github.com/san-kum/condensim/internal/smoothing"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// growthConfig has the closed-form solution ρ = e^{Et}, θ = 0 when ρ′₀ = E:
// with no potential and a frozen phase X = E², so the ratio X·ρ²/ρ′² is 1.
func growthConfig() experiment.Config {
	return experiment.Config{
		Name:      "growth",
		Params:    physics.Params{Variant: physics.VariantOscillating, E: 1, L: 3},
		Initial:   dynamo.State{1, 1, 0, 0},
		Span:      dynamo.Span{Start: 0, End: 2},
		Points:    401,
		Method:    "rk45",
		Tolerance: dynamo.Tolerance{Rel: 1e-9, Abs: 1e-12},
		Smoothing: experiment.Smoothing{Window: 5, Degree: 2, Factor: 1},
		Feeds:     observables.Feeds{ThetaPrime: observables.SourceMovingAverage},
		Stages:    experiment.Stages{Denominator: smoothing.KindSavitzkyGolay},
		Frequency: experiment.Frequency{Enabled: true, Window: 11, Degree: 1, Range: fit.Range{From: 10}},
		Decay:     experiment.Decay{Enabled: true, Degree: 1},
		Average:   experiment.Average{Enabled: true, Stop: 1},
	}
}

var _ = Describe("Experiment", func() {
	Context("with an exponentially growing modulus", func() {
		var rep *experiment.Report

		BeforeEach(func() {
			exp, err := experiment.New(growthConfig(), quiet)
			Expect(err).NotTo(HaveOccurred())
			rep, err = exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("reaches the end of the span", func() {
			Expect(rep.Termination.Reached).To(BeTrue())
			Expect(rep.Termination.String()).To(Equal("No discontinuity in range!"))
			Expect(rep.Scalars[experiment.ScalarSamples]).To(BeNumerically("==", 401))
		})

		It("integrates the closed-form trajectory", func() {
			rho := rep.Signals["rho"]
			Expect(rho.Len()).To(Equal(401))
			Expect(rho.At(400)).To(BeNumerically("~", math.Exp(2), 1e-5))
			Expect(rep.Scalars["min_rho"]).To(BeNumerically("~", 1, 1e-12))
		})

		It("reports initial diagnostics", func() {
			// kinetic E²ρ₀ = 1, potential 0, ρ″₀ = 1
			Expect(rep.Scalars[experiment.ScalarKinetic0]).To(BeNumerically("~", 1, 1e-12))
			Expect(rep.Scalars[experiment.ScalarAbsPotential0]).To(BeNumerically("==", 0))
			Expect(rep.Scalars[experiment.ScalarEpsilonH0]).To(BeNumerically("~", 3, 1e-12))
		})

		It("computes ε_H and w with a smoothed denominator", func() {
			eps := rep.Signals["epsilon_h"]
			w := rep.Signals["w"]
			Expect(eps.Len()).To(Equal(401))
			for i := 0; i < eps.Len(); i++ {
				Expect(eps.At(i)).To(BeNumerically("~", 3, 1e-3), "sample %d", i)
				Expect(w.At(i)).To(BeNumerically("~", 1, 1e-3), "sample %d", i)
			}
		})

		It("keeps smoothed feeds alongside the raw signals", func() {
			Expect(rep.Signals).To(HaveKey("theta_prime_ma"))
			Expect(rep.Signals).To(HaveKey("theta_prime"))
		})

		It("averages the growth ratios", func() {
			Expect(rep.Scalars[experiment.ScalarAvgRhoPOverRho]).To(BeNumerically("~", 1, 1e-6))
			Expect(rep.Scalars[experiment.ScalarAvgRhoPPOverRho]).To(BeNumerically("~", 1, 1e-12))
			Expect(rep.Scalars[experiment.ScalarAverageStop]).To(BeNumerically("==", 1))
		})

		It("degrades the frequency-dependent stages without failing", func() {
			Expect(rep.Scalars[experiment.ScalarOmega]).To(BeNumerically("~", 0, 1e-12))
			Expect(rep.Degraded).To(HaveKey(experiment.StageMatchedWindow))
			Expect(rep.Degraded[experiment.StageMatchedWindow]).To(MatchError(analysis.ErrNoOscillation))
			Expect(rep.Degraded[experiment.StageDecay]).To(MatchError(analysis.ErrNoOscillation))
			Expect(rep.Degraded).To(HaveKey(experiment.StageStroboscopic))
			Expect(rep.Scalars).NotTo(HaveKey(experiment.ScalarDecayRate))
		})
	})

	Context("with the damped preset", func() {
		It("reports a small perturbation parameter and the initial ε_H", func() {
			c := config.GetPreset("damped")
			c.Integration.Points = 1000
			cfg, err := experiment.FromConfig(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Params.Sign).To(Equal(physics.SignMinus))
			Expect(cfg.Perturbation).NotTo(BeNil())

			exp, err := experiment.New(cfg, quiet)
			Expect(err).NotTo(HaveOccurred())
			rep, err := exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			kin := (1 - 2 + 4) * 10.0
			pot := 10 * (math.Cos(0.78) - math.Sin(0.78)) * 1e5
			Expect(rep.Scalars[experiment.ScalarPerturbation0]).To(BeNumerically("~", kin/pot, 1e-12))
			Expect(math.Abs(rep.Scalars[experiment.ScalarPerturbation0])).To(BeNumerically("<", 0.01))

			rhoP0 := math.Sqrt(math.Sqrt(200)/3) * 1000
			want := 4.5 - 1.5*(kin+pot)*10/(rhoP0*rhoP0)
			Expect(rep.Scalars[experiment.ScalarEpsilonH0]).To(BeNumerically("~", want, 1e-9))

			if !rep.Termination.Reached {
				Expect(rep.Termination.String()).To(HavePrefix("Discontinuity! Stopped at:"))
				Expect(rep.Termination.Time).To(BeNumerically("<", 0.1))
			}
			Expect(rep.Signals).To(HaveKey("rho_perturbative"))
			Expect(rep.Signals["rho_perturbative"].Len()).To(Equal(rep.Signals["rho"].Len()))
		})
	})

	Context("with the oscillating preset", func() {
		It("stays regular and yields finite averages", func() {
			if testing.Short() {
				Skip("integrates 10^6 grid points")
			}
			cfg, err := experiment.FromConfig(config.GetPreset("oscillating"))
			Expect(err).NotTo(HaveOccurred())
			exp, err := experiment.New(cfg, quiet)
			Expect(err).NotTo(HaveOccurred())
			rep, err := exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(rep.Termination.String()).To(Equal("No discontinuity in range!"))
			for _, name := range []string{experiment.ScalarAvgRhoPOverRho, experiment.ScalarAvgRhoPPOverRho} {
				v, ok := rep.Scalar(name)
				Expect(ok).To(BeTrue())
				Expect(math.IsNaN(v) || math.IsInf(v, 0)).To(BeFalse(), name)
			}
		})
	})

	Context("with the frequency preset", func() {
		var rep *experiment.Report

		BeforeEach(func() {
			c := config.GetPreset("frequency")
			c.Feeds.Rho = "savgol"
			cfg, err := experiment.FromConfig(c)
			Expect(err).NotTo(HaveOccurred())
			exp, err := experiment.New(cfg, quiet)
			Expect(err).NotTo(HaveOccurred())
			rep, err = exp.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("reaches the end of the span", func() {
			Expect(rep.Termination.Reached).To(BeTrue())
			Expect(rep.Signals["rho"].Len()).To(Equal(1000))
		})

		It("estimates the winding rate from the phase", func() {
			omega := rep.Scalars[experiment.ScalarOmega]
			Expect(omega).To(BeNumerically("~", 3, 0.1))
			Expect(rep.Scalars).To(HaveKey(experiment.ScalarOmegaSpectral))
			Expect(rep.Scalars[experiment.ScalarOmegaSpectral]).To(BeNumerically("~", omega, 0.4))
		})

		It("smooths feeds and stages at the matched window", func() {
			window := rep.Scalars[experiment.ScalarMatchedWindow]
			Expect(window).To(BeNumerically(">", 150))
			Expect(window).To(BeNumerically("<", 250))
			Expect(rep.Signals).To(HaveKey("rho_sg"))
			Expect(rep.Signals["rho_sg"].Provenance().Params["window"]).To(Equal(window))
			Expect(rep.Degraded).NotTo(HaveKey(experiment.StageObservables))
		})

		It("fits a finite growth rate past the fit start", func() {
			Expect(rep.Degraded).NotTo(HaveKey(experiment.StageDecay))
			rate, ok := rep.Scalar(experiment.ScalarDecayRate)
			Expect(ok).To(BeTrue())
			Expect(math.IsNaN(rate) || math.IsInf(rate, 0)).To(BeFalse())
			Expect(rate).To(BeNumerically("~", 0.59, 0.15))
		})
	})

	Context("when the configuration is invalid", func() {
		It("rejects unknown integrators", func() {
			cfg := growthConfig()
			cfg.Method = "leapfrog"
			_, err := experiment.New(cfg, quiet)
			Expect(err).To(MatchError(ContainSubstring("unknown integrator")))
		})

		It("rejects unknown stage filters", func() {
			cfg := growthConfig()
			cfg.Stages.Result = "kalman"
			_, err := experiment.New(cfg, quiet)
			Expect(err).To(MatchError(ContainSubstring("unknown filter")))
		})

		It("rejects out-of-bounds parameters", func() {
			cfg := growthConfig()
			cfg.Params.Variant = "bogus"
			_, err := experiment.New(cfg, quiet)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("fails on a singular initial state", func() {
			cfg := growthConfig()
			cfg.Initial = dynamo.State{0, 1, 0, 0}
			exp, err := experiment.New(cfg, quiet)
			Expect(err).NotTo(HaveOccurred())
			_, err = exp.Run(context.Background())
			Expect(err).To(MatchError(dynamo.ErrSingularity))
		})
	})
})

var _ = Describe("Config", func() {
	It("replaces initial values and model parameters", func() {
		base := growthConfig()
		c, err := base.With(experiment.ParamTheta0, 0.4)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Initial[dynamo.Theta]).To(Equal(0.4))
		Expect(base.Initial[dynamo.Theta]).To(Equal(0.0))

		c, err = base.With("E", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Params.E).To(Equal(3.0))

		_, err = base.With("mass", 1)
		Expect(err).To(MatchError(ContainSubstring("unknown param")))
	})

	It("names varied configurations", func() {
		cs, err := experiment.Vary(growthConfig(), "E", []float64{0.5, 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(cs).To(HaveLen(2))
		Expect(cs[0].Name).To(Equal("growth[E=0.5]"))
		Expect(cs[1].Params.E).To(Equal(2.0))
	})

	It("converts every preset", func() {
		for _, name := range config.ListPresets() {
			_, err := experiment.FromConfig(config.GetPreset(name))
			Expect(err).NotTo(HaveOccurred(), name)
		}
	})

	It("rejects unknown feed sources", func() {
		c := config.DefaultConfig()
		c.Feeds.Rho = "kalman"
		_, err := experiment.FromConfig(c)
		Expect(err).To(MatchError(observables.ErrUnknownSource))
	})
})

var _ = Describe("Registry", func() {
	r := experiment.NewRegistry()

	It("lists integrators and filters", func() {
		Expect(r.ListIntegrators()).To(Equal([]string{"rk4", "rk45"}))
		Expect(r.ListFilters()).To(ConsistOf("moving_average", "savgol", "adaptive_moving_average", "adaptive_savgol"))
	})

	It("resolves integrators case-insensitively", func() {
		for _, name := range []string{"", "RK45", "rk4"} {
			_, err := r.GetIntegrator(name, dynamo.DefaultTolerance())
			Expect(err).NotTo(HaveOccurred(), name)
		}
	})
})

var _ = Describe("Sweep", func() {
	It("runs every configuration and keeps failures per run", func() {
		cfgs, err := experiment.Vary(growthConfig(), "E", []float64{0.5, 1, 2})
		Expect(err).NotTo(HaveOccurred())
		bad := growthConfig()
		bad.Params.Variant = "bogus"
		cfgs = append(cfgs, bad)

		out, err := experiment.Sweep(context.Background(), cfgs, 2, quiet)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(4))

		for i, e := range []float64{0.5, 1, 2} {
			Expect(out[i].Err).NotTo(HaveOccurred())
			Expect(out[i].Config.Params.E).To(Equal(e))
			// θ′ = 0 and no potential: ρ″/ρ = E² exactly.
			Expect(out[i].Report.Scalars[experiment.ScalarAvgRhoPPOverRho]).To(BeNumerically("~", e*e, 1e-12))
		}
		Expect(out[3].Err).To(MatchError(dynamo.ErrParameterBounds))
		Expect(out[3].Report).To(BeNil())
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := experiment.Sweep(ctx, []experiment.Config{growthConfig()}, 0, quiet)
		Expect(err).To(MatchError(context.Canceled))
	})
})
