package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/condensim/internal/analysis"
	"github.com/san-kum/condensim/internal/signal"
	"github.com/san-kum/condensim/internal/storage"
)

// openRun opens the store and resolves a possibly abbreviated run id.
func openRun(prefix string) (*storage.Store, string, error) {
	st, err := storage.Open(dataDir)
	if err != nil {
		return nil, "", err
	}
	runID, err := st.Resolve(prefix)
	if err != nil {
		st.Close()
		return nil, "", err
	}
	return st, runID, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header.Render("ID")+"\tNAME\tTIME\tVARIANT\tINTEG\tSAMPLES\tSTOPPED")
	for _, run := range runs {
		stopped := "-"
		if !run.Reached {
			stopped = fmt.Sprintf("%.6g", run.StoppedAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID[:8],
			run.Name,
			run.Time().Format("2006-01-02 15:04:05"),
			run.Variant,
			run.Integrator,
			run.Samples,
			stopped,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Println(header.Render("run " + meta.ID))
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("time: %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("model: %s %s, integrator %s\n", meta.Variant, meta.Sign, meta.Integrator)
	fmt.Printf("initial: %v, span [%g, %g], %d points\n", meta.Initial, meta.SpanStart, meta.SpanEnd, meta.Points)
	if meta.Reached {
		fmt.Println("No discontinuity in range!")
	} else {
		fmt.Printf("Discontinuity! Stopped at: %g (%s)\n", meta.StoppedAt, meta.Reason)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\n"+header.Render("params"))
	for _, name := range sortedNames(meta.Params) {
		fmt.Fprintf(w, "  %s\t%g\n", name, float64(meta.Params[name]))
	}
	fmt.Fprintln(w, "\n"+header.Render("scalars"))
	for _, name := range meta.SortedScalarNames() {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, float64(meta.Scalars[name]))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(meta.Degraded) > 0 {
		fmt.Println("\n" + warn.Render("degraded stages"))
		for _, name := range sortedNames(meta.Degraded) {
			fmt.Printf("  %s: %s\n", name, meta.Degraded[name])
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	signals, err := st.LoadSignals(runID)
	if err != nil {
		return err
	}
	byName := make(map[string]signal.Signal, len(signals))
	for _, s := range signals {
		byName[s.Name()] = s
	}

	fmt.Printf("run: %s\n\n", runID)
	for _, name := range plotSignals {
		s, ok := byName[name]
		if !ok {
			fmt.Println(warn.Render("no signal " + name))
			continue
		}
		data := finite(s.Values())
		if len(data) == 0 {
			fmt.Println(warn.Render("no finite samples in " + name))
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(name+" vs chi"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if portrait {
		rho, ok1 := byName["rho"]
		rhoP, ok2 := byName["rho_prime"]
		if !ok1 || !ok2 {
			return fmt.Errorf("run %s has no rho/rho_prime signals", runID)
		}
		p, err := analysis.NewPortrait(rho, rhoP)
		if err != nil {
			return err
		}
		fmt.Println(header.Render("phase portrait (rho, rho_prime)"))
		fmt.Println(p.ASCII(width, 2*height))
	}
	return nil
}

// finite drops NaN and infinite samples, which asciigraph cannot scale.
func finite(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, runID, err := openRun(args[0])
	if err != nil {
		return err
	}
	defer st.Close()

	if exportPath == "" {
		return st.Export(os.Stdout, runID)
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	signals, err := st.LoadSignals(runID)
	if err != nil {
		return err
	}
	if err := storage.ExportJSONFile(exportPath, meta, signals); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, exportPath)
	return nil
}
