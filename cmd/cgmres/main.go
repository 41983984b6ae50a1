// Command cgmres is the CLI front end for the C/GMRES nonlinear MPC
// solver: it arms a solver.Solver for one of the built-in plant models,
// drives the closed loop with internal/simrun, and archives or plots the
// result. Its command surface (run/list/plot/export/analyze/presets, with
// the live dashboard behind "run --live")
// mirrors the teacher's cmd/dynsim, built on the same cobra/asciigraph
// stack.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cgmres-mpc/internal/config"
	"github.com/san-kum/cgmres-mpc/internal/horizon"
	"github.com/san-kum/cgmres-mpc/internal/livetui"
	"github.com/san-kum/cgmres-mpc/internal/logging"
	"github.com/san-kum/cgmres-mpc/internal/metrics"
	"github.com/san-kum/cgmres-mpc/internal/models"
	"github.com/san-kum/cgmres-mpc/internal/ocp"
	"github.com/san-kum/cgmres-mpc/internal/simrun"
	"github.com/san-kum/cgmres-mpc/internal/solver"
	"github.com/san-kum/cgmres-mpc/internal/spectrum"
	"github.com/san-kum/cgmres-mpc/internal/storage"
	"github.com/san-kum/cgmres-mpc/internal/store"
)

var (
	dataDir    string
	configFile string
	presetName string
	dt         float64
	duration   float64
	save       bool
	exportPath string
	live       bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cgmres",
		Short: "continuation/GMRES nonlinear MPC lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cgmres", "run archive directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "arm the solver and run a closed-loop simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runModel,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&presetName, "preset", "", "use a named preset for the model")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "simulation step (overrides config/preset)")
	runCmd.Flags().Float64Var(&duration, "time", 5.0, "simulation duration in seconds")
	runCmd.Flags().BoolVar(&save, "save", false, "archive the run under --data")
	runCmd.Flags().StringVar(&exportPath, "export", "", "write the trajectory to this JSON file")
	runCmd.Flags().BoolVar(&live, "live", false, "watch the closed loop in a live TUI instead of batch-running it")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an archived run's state trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print an archived run's metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize an archived run's convergence and state statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildProblem returns the ocp.Problem for a model name. Model parameters
// are fixed at their documented nominal values; only the horizon, solver
// settings, and initial state are configurable, the way the worked
// examples this module is grounded on expect.
func buildProblem(model string) (ocp.Problem, error) {
	switch model {
	case "cartpole":
		return models.NewCartPole(), nil
	case "hexacopter":
		return models.NewHexacopter(), nil
	default:
		return nil, fmt.Errorf("unknown model: %s (available: cartpole, hexacopter)", model)
	}
}

func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	var cfg *config.Config
	if presetName != "" {
		cfg = config.GetPreset(model, presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for model %q (available: %v)",
				presetName, model, config.ListPresets(model))
		}
	} else {
		cfg = config.DefaultConfig()
		cfg.Model = model
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = fileCfg
	}

	if cmd.Flags().Changed("dt") {
		cfg.Solver.SamplingTime = dt
		cfg.Solver.Dt = 0
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func armSolver(p ocp.Problem, cfg *config.Config) (*solver.Solver, error) {
	h, err := horizon.New(cfg.Horizon.Tf, cfg.Horizon.Alpha, 0)
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}

	settings := solver.Settings{
		N:             cfg.Horizon.N,
		EpsFB:         cfg.Solver.EpsFB,
		Zeta:          cfg.Solver.Zeta,
		FDEps:         cfg.Solver.FDEps,
		Kmax:          cfg.Solver.Kmax,
		Tol:           cfg.Solver.Tol,
		WarnThreshold: cfg.Solver.WarnThreshold,
		InitMaxIter:   cfg.Solver.InitMaxIter,
		InitTol:       cfg.Solver.InitTol,
		InitDummyEps:  cfg.Solver.InitDummyEps,
	}

	s, err := solver.New(p, h, settings)
	if err != nil {
		return nil, fmt.Errorf("solver.New: %w", err)
	}
	if err := s.SetUC(cfg.InitUC); err != nil {
		return nil, fmt.Errorf("SetUC: %w", err)
	}
	if err := s.InitXLmd(0, cfg.InitX); err != nil {
		return nil, fmt.Errorf("InitXLmd: %w", err)
	}
	if err := s.InitDummyMu(); err != nil {
		return nil, fmt.Errorf("InitDummyMu: %w", err)
	}
	if err := s.Solve(); err != nil {
		return nil, fmt.Errorf("Solve: %w", err)
	}
	return s, nil
}

func runModel(cmd *cobra.Command, args []string) error {
	model := args[0]

	level := logging.DefaultOptions()
	if verbose {
		level.Level = slog.LevelDebug
	}
	logger := logging.New(level)

	cfg, err := loadConfig(cmd, model)
	if err != nil {
		return err
	}
	if verbose && cfg.Solver.VerboseLevel < 2 {
		cfg.Solver.VerboseLevel = 2
	}

	p, err := buildProblem(model)
	if err != nil {
		return err
	}

	s, err := armSolver(p, cfg)
	if err != nil {
		return err
	}
	logger.Info("solver armed", "model", model, "preset", presetName, "step", cfg.Solver.Step())

	// Events() is never closed by the solver (it outlives any single Run
	// call), so this drains for the lifetime of the process rather than
	// being waited on; the goroutine is reclaimed on exit.
	go func() {
		for e := range s.Events() {
			logging.LogEvent(logger, e, cfg.Solver.VerboseLevel)
		}
	}()

	if live {
		return livetui.Run(model, s, p, cfg.InitX, cfg.Solver.Step())
	}

	start := time.Now()
	result, err := simrun.Run(context.Background(), s, p, cfg.InitX, simrun.Config{
		Dt:       cfg.Solver.Step(),
		Duration: duration,
	})
	if err != nil {
		return fmt.Errorf("simrun.Run: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d steps in %v\n", len(result.States)-1, elapsed)
	if n := len(result.ResidualNorms); n > 0 {
		fmt.Printf("final residual norm: %.3e\n", result.ResidualNorms[n-1])
	}
	if len(result.Warnings) > 0 {
		fmt.Printf("warnings: %d\n", len(result.Warnings))
	}
	fmt.Println()
	fmt.Println(s.Summary())

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(model, presetName, cfg.Solver.Step(), duration, result)
		if err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if exportPath != "" {
		if err := store.ExportJSON(exportPath, model, presetName, cfg.Solver.Step(), duration, result); err != nil {
			return fmt.Errorf("exporting trajectory: %w", err)
		}
		fmt.Printf("exported trajectory to %s\n", exportPath)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tPRESET\tTIME\tDURATION\tDT\tFINAL RESIDUAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%.3e\n",
			run.ID, run.Model, run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration, run.Dt, run.FinalResidual)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (preset %s)\n", meta.Model, meta.Preset)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d vs time", varIdx)))
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (preset %s)\n", meta.Model, meta.Preset)
	fmt.Printf("final residual norm: %.3e\n\n", meta.FinalResidual)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tMIN\tMAX\tMEAN\tRMS")
	numVars := len(states[0])
	for varIdx := 0; varIdx < numVars; varIdx++ {
		min, max, sum := states[0][varIdx], states[0][varIdx], 0.0
		for _, s := range states {
			v := s[varIdx]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		mean := sum / float64(len(states))
		rms := metrics.StateRMS(states, varIdx)
		fmt.Fprintf(w, "x%d\t%.4f\t%.4f\t%.4f\t%.4f\n", varIdx, min, max, mean, rms)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][0]
	}
	padded := spectrum.PadPowerOfTwo(data)
	ps := spectrum.PowerSpectrum(padded)
	plotData := ps[:len(ps)/4]
	if len(plotData) >= 2 {
		graph := asciigraph.Plot(plotData,
			asciigraph.Height(10), asciigraph.Width(80),
			asciigraph.Caption("power spectrum (x0)"))
		fmt.Println(graph)
		fmt.Println()

		freq, period := spectrum.DominantFrequency(plotData, meta.Duration)
		fmt.Printf("dominant frequency: %.3f hz\n", freq)
		if period > 0 {
			fmt.Printf("period: %.3f s\n", period)
		}
	}
	return nil
}
