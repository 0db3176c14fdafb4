package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool

	configFile string
	save       bool
	sweepSave  bool

	// integration overrides
	end        float64
	points     int
	integrator string
	rtol       float64
	atol       float64

	// initial-state overrides
	rho0        float64
	rhoPrime0   float64
	theta0      float64
	thetaPrime0 float64

	// sweep and search
	param     string
	values    []float64
	parallel  int
	columns   []string
	grid      []string
	objective string
	full      bool

	// plot
	plotSignals []string
	portrait    bool
	height      int
	width       int

	exportPath string
)

var (
	header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	warn   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "condensim",
		Short: "condensate order-parameter integration and observables",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".condensim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "integrate one configuration and compute its observables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExperiment,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the scalars of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored signals",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotSignals, "signals", []string{"rho", "epsilon_h"}, "signals to plot")
	plotCmd.Flags().BoolVar(&portrait, "portrait", false, "also draw the (rho, rho_prime) phase portrait")
	plotCmd.Flags().IntVar(&height, "height", 10, "plot height")
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run one configuration per value of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&param, "param", "theta0", "parameter to vary")
	sweepCmd.Flags().Float64SliceVar(&values, "values", nil, "parameter values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "maximum concurrent runs (0 = unbounded)")
	sweepCmd.Flags().StringSliceVar(&columns, "scalars", []string{"epsilonH_0", "omega", "stopped_at"}, "scalars to tabulate")
	sweepCmd.Flags().BoolVar(&sweepSave, "save", false, "store every run")
	_ = sweepCmd.MarkFlagRequired("values")

	searchCmd := &cobra.Command{
		Use:   "search [preset]",
		Short: "grid-search parameters minimizing a scalar",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSearch,
	}
	addConfigFlags(searchCmd)
	searchCmd.Flags().StringArrayVar(&grid, "grid", []string{"theta0=0:0.5:501"}, "name=lo:hi:n, repeatable")
	searchCmd.Flags().StringVar(&objective, "objective", "abs_potential_0", "scalar to minimize")
	searchCmd.Flags().BoolVar(&full, "full", false, "integrate every candidate instead of scoring initial diagnostics")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCmd, presetsCmd, sweepCmd, searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&end, "end", 0, "end of the integration span")
	cmd.Flags().IntVar(&points, "points", 0, "number of output samples")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator")
	cmd.Flags().Float64Var(&rtol, "rtol", 0, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", 0, "absolute tolerance")
	cmd.Flags().Float64Var(&rho0, "rho0", 0, "initial modulus")
	cmd.Flags().Float64Var(&rhoPrime0, "rho-prime0", 0, "initial modulus velocity")
	cmd.Flags().Float64Var(&theta0, "theta0", 0, "initial phase")
	cmd.Flags().Float64Var(&thetaPrime0, "theta-prime0", 0, "initial phase velocity")
}
