package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/condensim/internal/dynamo"
)

// Simulator drives an integrator over a system on a fixed evaluation grid
// and folds the produced samples into metrics.
type Simulator struct {
	sys        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	logger     *slog.Logger
}

func New(sys dynamo.System, integrator dynamo.Integrator, logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		sys:        sys,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		logger:     logger,
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }

// Run integrates from x0. An early stop is not an error: the result holds
// the samples computed before the stop and Termination records where and
// why it happened.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	grid := cfg.Grid()
	s.logger.Debug("integration start",
		"span_start", cfg.Span.Start, "span_end", cfg.Span.End, "points", len(grid))

	sol, err := s.integrator.Integrate(ctx, s.sys, cfg.Span, x0, grid)
	if err != nil {
		return nil, fmt.Errorf("integrate: %w", err)
	}

	result := &Result{
		Times:   sol.T,
		States:  sol.Y,
		Metrics: make(map[string]float64),
		Termination: Termination{
			Reached: sol.Success,
			Time:    sol.TFinal,
			Reason:  sol.Reason,
		},
		Steps:       sol.Steps,
		Rejected:    sol.Rejected,
		Evaluations: sol.Evaluations,
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	for i, x := range result.States {
		for _, m := range s.metrics {
			m.Observe(x, result.Times[i])
		}
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if sol.Success {
		s.logger.Info("integration complete",
			"samples", result.Len(), "steps", sol.Steps, "rejected", sol.Rejected)
	} else {
		s.logger.Warn("integration stopped early",
			"stopped_at", sol.TFinal, "samples", result.Len(), "requested", len(grid), "reason", sol.Reason)
	}
	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !cfg.Span.Valid() {
		return fmt.Errorf("%w: span must be increasing, got [%f, %f]", dynamo.ErrInvalidSpan, cfg.Span.Start, cfg.Span.End)
	}
	if cfg.Times == nil && cfg.Points < 2 {
		return fmt.Errorf("points must be at least 2, got %d", cfg.Points)
	}
	return nil
}
