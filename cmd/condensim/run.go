package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/condensim/internal/config"
	"github.com/san-kum/condensim/internal/experiment"
	"github.com/san-kum/condensim/internal/storage"
)

const defaultPreset = "damped"

// loadConfig resolves the preset, then the config file, then the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, args []string) (experiment.Config, error) {
	name := defaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return experiment.Config{}, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return experiment.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("end") {
		cfg.Integration.End = end
	}
	if flags.Changed("points") {
		cfg.Integration.Points = points
	}
	if flags.Changed("integrator") {
		cfg.Integration.Method = integrator
	}
	if flags.Changed("rtol") {
		cfg.Integration.RelTol = rtol
	}
	if flags.Changed("atol") {
		cfg.Integration.AbsTol = atol
	}
	if flags.Changed("rho0") {
		cfg.Initial.Rho = rho0
	}
	if flags.Changed("rho-prime0") {
		cfg.Initial.RhoPrime = rhoPrime0
	}
	if flags.Changed("theta0") {
		cfg.Initial.Theta = theta0
	}
	if flags.Changed("theta-prime0") {
		cfg.Initial.ThetaPrime = thetaPrime0
	}

	return experiment.FromConfig(cfg)
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()

	rep, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	printReport(rep)

	if save {
		st, err := storage.Open(dataDir)
		if err != nil {
			return err
		}
		defer st.Close()

		runID, err := st.Save(cfg, rep)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}
	return nil
}

func printReport(rep *experiment.Report) {
	fmt.Println(rep.Termination)
	fmt.Println()
	fmt.Println(header.Render("scalars"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range rep.ScalarNames() {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, rep.Scalars[name])
	}
	w.Flush()

	if len(rep.Degraded) > 0 {
		fmt.Println()
		fmt.Println(warn.Render("degraded stages"))
		for _, name := range rep.DegradedNames() {
			fmt.Printf("  %s: %v\n", name, rep.Degraded[name])
		}
	}

	fmt.Println()
	fmt.Println(dim.Render("signals: " + strings.Join(rep.SignalNames(), " ")))
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println(header.Render("presets"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "  %s\t%s\tE=%g\tspan=[%g, %g]\tpoints=%d\n",
			name, p.Model.Variant, p.Model.E, p.Integration.Start, p.Integration.End, p.Integration.Points)
	}
	return w.Flush()
}

// sortedNames returns the keys of m in order.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
