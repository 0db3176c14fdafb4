package experiment

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs a sweep configuration with its report or error.
type Outcome struct {
	Config Config
	Report *Report
	Err    error
}

// Sweep runs independent experiments with at most limit in flight; limit <= 0
// means no bound. A failing run does not stop the others. The returned error
// is non-nil only when ctx is cancelled.
func Sweep(ctx context.Context, configs []Config, limit int, logger *slog.Logger) ([]Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Outcome, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, cfg := range configs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i].Config = cfg
			exp, err := New(cfg, logger)
			if err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Report, out[i].Err = exp.Run(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	logger.Info("sweep complete", "runs", len(configs))
	return out, ctx.Err()
}
