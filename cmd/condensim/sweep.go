package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/condensim/internal/experiment"
	"github.com/san-kum/condensim/internal/optim"
	"github.com/san-kum/condensim/internal/storage"
)

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	configs, err := experiment.Vary(base, param, values)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %d values...\n", param, len(values))
	start := time.Now()
	outcomes, err := experiment.Sweep(context.Background(), configs, parallel, slog.Default())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	var st *storage.Store
	if sweepSave {
		if st, err = storage.Open(dataDir); err != nil {
			return err
		}
		defer st.Close()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, header.Render(strings.ToUpper(param)))
	for _, c := range columns {
		fmt.Fprintf(w, "\t%s", c)
	}
	fmt.Fprintln(w, "\tSTATUS")

	for i, o := range outcomes {
		fmt.Fprintf(w, "%g", values[i])
		if o.Err != nil {
			for range columns {
				fmt.Fprint(w, "\t-")
			}
			fmt.Fprintf(w, "\t%s\n", warn.Render(o.Err.Error()))
			continue
		}
		for _, c := range columns {
			if v, ok := o.Report.Scalar(c); ok {
				fmt.Fprintf(w, "\t%.6g", v)
			} else {
				fmt.Fprint(w, "\t-")
			}
		}
		status := "ok"
		if !o.Report.Termination.Reached {
			status = fmt.Sprintf("stopped at %g", o.Report.Termination.Time)
		}
		if st != nil {
			runID, err := st.Save(o.Config, o.Report)
			if err != nil {
				return err
			}
			status += " " + dim.Render(runID[:8])
		}
		fmt.Fprintf(w, "\t%s\n", status)
	}
	return w.Flush()
}

// parseGrid parses "name=lo:hi:n".
func parseGrid(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid grid %q: want name=lo:hi:n", spec)
	}
	parts := strings.Split(rng, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid grid %q: want name=lo:hi:n", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid grid %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid grid %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid grid %q: n must be a positive integer", spec)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(grid))
	ranges := make([][]float64, 0, len(grid))
	candidates := 1
	for _, g := range grid {
		name, r, err := parseGrid(g)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, r)
		candidates *= len(r)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	obj := optim.InitialScalar(objective)
	if full {
		obj = optim.ReportScalar(objective, slog.Default())
	}

	fmt.Printf("searching %d candidates for minimal %s...\n", candidates, objective)
	start := time.Now()
	res, err := gs.Search(context.Background(), base, obj)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v (%d evaluated, %d failed)\n\n", time.Since(start), res.Evaluated, res.Failed)

	fmt.Println(header.Render("best"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.10g\n", name, res.Best.Params[name])
	}
	fmt.Fprintf(w, "  %s\t%.6g\n", objective, res.Best.Value)
	return w.Flush()
}
