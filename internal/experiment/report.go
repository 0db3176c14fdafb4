package experiment

import (
	"log/slog"

	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/sim"
)

// Report is the flat output of one run: named scalars, named signals on the
// trajectory grid, how integration ended, and the stages that failed without
// aborting the run.
type Report struct {
	Name        string
	Scalars     map[string]float64
	Signals     map[string]signal.Signal
	Termination sim.Termination
	Degraded    map[string]error
}

func newReport(name string) *Report {
	return &Report{
		Name:     name,
		Scalars:  make(map[string]float64),
		Signals:  make(map[string]signal.Signal),
		Degraded: make(map[string]error),
	}
}

func (r *Report) addSignal(s signal.Signal) { r.Signals[s.Name()] = s }

func (r *Report) degrade(logger *slog.Logger, stage string, err error) {
	logger.Warn("stage degraded", "stage", stage, "err", err)
	r.Degraded[stage] = err
}

func (r *Report) Scalar(name string) (float64, bool) {
	v, ok := r.Scalars[name]
	return v, ok
}

func (r *Report) ScalarNames() []string   { return sortedKeys(r.Scalars) }
func (r *Report) SignalNames() []string   { return sortedKeys(r.Signals) }
func (r *Report) DegradedNames() []string { return sortedKeys(r.Degraded) }
