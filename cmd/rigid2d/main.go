package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/rigid2d/internal/analysis"
	"github.com/san-kum/rigid2d/internal/automation"
	"github.com/san-kum/rigid2d/internal/config"
	"github.com/san-kum/rigid2d/internal/experiment"
	"github.com/san-kum/rigid2d/internal/optim"
	"github.com/san-kum/rigid2d/internal/scene"
	"github.com/san-kum/rigid2d/internal/storage"
	"github.com/san-kum/rigid2d/internal/stream"
	"github.com/san-kum/rigid2d/internal/tui"
	"github.com/san-kum/rigid2d/internal/world"
)

var (
	dataDir      string
	verbose      bool
	configFile   string
	preset       string
	duration     float64
	dt           float64
	seed         int64
	recordEvery  int
	params       map[string]string
	componentIdx int
	xAxis        int
	yAxis        int
	addr         string
	streamEvery  int
	realtime     bool
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	trials       int
	kick         float64
	mcKick       float64
	grid         []string
	tuneMetric   string
)

var log *zap.SugaredLogger

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigid2d",
		Short: "2d rigid body and constraint simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigid2d", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one state component of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&componentIdx, "component", 1, "state index to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newStore().ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of one state component",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&componentIdx, "component", 1, "state index to analyze")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 1, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 4, "state index for y-axis")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene at several timesteps",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")

	divergeCmd := &cobra.Command{
		Use:   "diverge [scene]",
		Short: "estimate sensitivity to initial conditions",
		Args:  cobra.ExactArgs(1),
		RunE:  divergeScene,
	}
	divergeCmd.Flags().Float64Var(&duration, "time", 5, "duration")
	divergeCmd.Flags().Float64Var(&kick, "kick", 1e-6, "velocity perturbation")
	divergeCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list available scenes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scene.List() {
				fmt.Println(name)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "sweep one scene parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "name", "stiffness", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.001, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.01, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().Float64Var(&duration, "time", 5, "duration")
	sweepCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "run randomly perturbed copies of a scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	montecarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	montecarloCmd.Flags().Float64Var(&mcKick, "kick", 0.5, "maximum velocity perturbation")
	montecarloCmd.Flags().Float64Var(&duration, "time", 5, "duration")
	montecarloCmd.Flags().Int64Var(&seed, "seed", 1, "first trial seed")
	montecarloCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "run a scene and stream frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScene,
	}
	addRunFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&streamEvery, "every", 1, "broadcast every n-th step")
	serveCmd.Flags().BoolVar(&realtime, "realtime", true, "pace steps to wall-clock time")

	watchCmd := &cobra.Command{
		Use:   "watch [scene]",
		Short: "watch a scene in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  watchScene,
	}
	addRunFlags(watchCmd)

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a saved run from its checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().Float64Var(&duration, "time", 5, "additional duration")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search parameters that minimise a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneScene,
	}
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_penetration", "metric to minimise")
	tuneCmd.Flags().Float64Var(&duration, "time", 2, "duration")
	tuneCmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")

	rootCmd.AddCommand(tuneCmd, runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportCSVCmd,
		analyzeCmd, phaseCmd, benchCmd, divergeCmd, scenesCmd, presetsCmd, scenarioCmd,
		sweepCmd, montecarloCmd, serveCmd, watchCmd, resumeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() error {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	l, err := zcfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	log = l.Sugar()
	return nil
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the configured value)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "record every n-th step")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "scene parameter name=value")
}

// loadConfig merges, in increasing priority: defaults, preset, config
// file and explicit flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scene))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scene = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("dt") {
		cfg.World.Dt = dt
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if err := applyParams(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyParams(cfg *config.Config) error {
	if cfg.Params == nil {
		cfg.Params = map[string]float64{}
	}
	for k, v := range params {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("param %s: %w", k, err)
		}
		cfg.Params[k] = f
	}
	return nil
}

// sceneConfig is the configuration for commands that take a bare scene
// name. Flags shared between commands only count when set explicitly.
func sceneConfig(cmd *cobra.Command, name string, defDuration float64) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scene = name
	cfg.Duration = defDuration
	if f := cmd.Flags().Lookup("time"); f != nil && f.Changed {
		cfg.Duration = duration
	}
	if f := cmd.Flags().Lookup("seed"); f != nil && f.Changed {
		cfg.Seed = seed
	}
	if err := applyParams(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newStore() *storage.Store {
	st := storage.New(dataDir)
	st.SetLogger(log)
	return st
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := newStore()
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d bodies, %d colliders, %d joints)...\n",
		cfg.Scene, exp.World().BodyCount(), exp.World().ColliderCount(), exp.World().ConstraintCount())
	start := time.Now()
	result, err := exp.Run(ctx)
	if result == nil {
		return err
	}
	if err != nil {
		log.Warnw("run interrupted, saving partial result", "error", err)
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	if err := st.SaveCheckpoint(runID, exp.World().Snapshot()); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := newStore().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tSTEPS\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%.2e\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

type component struct {
	meta  *storage.RunMetadata
	name  string
	data  []float64
	times []float64
}

func loadComponent(runID string, idx int) (*component, error) {
	st := newStore()
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("no data")
	}
	if idx < 0 || idx >= len(states[0]) {
		return nil, fmt.Errorf("component %d out of range [0, %d)", idx, len(states[0]))
	}
	return &component{
		meta:  meta,
		name:  componentName(idx, len(states[0])),
		data:  analysis.Column(states, idx),
		times: times,
	}, nil
}

func componentName(idx, width int) string {
	return storage.Header(width)[idx+1]
}

func plotRun(cmd *cobra.Command, args []string) error {
	c, err := loadComponent(args[0], componentIdx)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", c.meta.ID)
	fmt.Printf("scene: %s\n", c.meta.Scene)
	fmt.Printf("samples: %d\n\n", len(c.data))

	fmt.Println(asciigraph.Plot(c.data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(c.name+" vs time"),
	))

	s := analysis.Summarize(c.data)
	fmt.Printf("\nmin %.4f  max %.4f  mean %.4f  rms %.4f\n", s.Min, s.Max, s.Mean, s.RMS)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := newStore().Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	states, times, err := newStore().LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(storage.Header(len(states[0]))); err != nil {
		return err
	}
	for i := range states {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, val := range states[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	c, err := loadComponent(args[0], componentIdx)
	if err != nil {
		return err
	}
	if len(c.times) < 2 {
		return fmt.Errorf("need at least two samples")
	}

	fmt.Printf("frequency analysis: %s\n", c.meta.ID)
	fmt.Printf("scene: %s\n\n", c.meta.Scene)

	ps := analysis.PowerSpectrum(c.data)
	plotData := ps
	if len(ps) >= 8 {
		plotData = ps[:len(ps)/4]
	}
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", c.name)),
	))
	fmt.Println()

	freq := analysis.DominantFrequency(c.data, c.times[1]-c.times[0])
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	st := newStore()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.NewPhasePortrait(states, xAxis, yAxis)
	if portrait == nil {
		return fmt.Errorf("state dimension too small for selected axes")
	}

	width := len(states[0])
	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", componentName(xAxis, width), componentName(yAxis, width))
	fmt.Print(portrait.ASCII(70, 20))
	fmt.Printf("\nLegend: . = early, o = middle, • = late\n")
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	durations := []float64{1.0, 5.0}
	dts := []float64{1.0 / 120, 1.0 / 60, 1.0 / 30}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC\tMAX DEPTH")

	for _, dur := range durations {
		for _, step := range dts {
			cfg, err := sceneConfig(cmd, args[0], dur)
			if err != nil {
				return err
			}
			cfg.World.Dt = step

			exp := experiment.New(cfg, nil)
			if err := exp.Setup(); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\t%.4f\n",
				dur, step, result.StepsTaken, elapsed,
				float64(result.StepsTaken)/elapsed.Seconds(),
				result.Metrics["max_penetration"])
		}
	}
	return w.Flush()
}

func divergeScene(cmd *cobra.Command, args []string) error {
	cfg, err := sceneConfig(cmd, args[0], 5)
	if err != nil {
		return err
	}

	ref, err := experiment.BuildWorld(cfg, log)
	if err != nil {
		return err
	}
	pert, err := experiment.BuildWorld(cfg, log)
	if err != nil {
		return err
	}
	hs := pert.Bodies()
	if len(hs) == 0 {
		return fmt.Errorf("scene has no bodies")
	}
	b, _ := pert.Body(hs[len(hs)-1])
	b.LinearVelocity[0] += kick

	steps := int(cfg.Duration / ref.Timestep())
	lambda := analysis.Divergence(ref, pert, steps)
	fmt.Printf("%s: largest lyapunov exponent ≈ %.4f /s over %.1fs\n", cfg.Scene, lambda, cfg.Duration)
	if lambda > 0 {
		fmt.Println("nearby states diverge")
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, runErr := automation.RunScenario(ctx, sc, log)

	st := newStore()
	if err := st.Init(); err != nil {
		return err
	}
	for i, r := range results {
		runID, err := st.Save(r.Config, r.Result)
		if err != nil {
			return err
		}
		label := r.Step.SaveAs
		if label == "" {
			label = fmt.Sprintf("step %d", i+1)
		}
		fmt.Printf("%s: %s (%d steps)\n", label, runID, r.Result.StepsTaken)
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := sceneConfig(cmd, args[0], 5)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMAX DEPTH\tDRIFT\tSTABLE\n", sweepParam)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.2e\t%v\n", r.ParamValue, r.MaxPenetration, r.EnergyDrift, r.Stable)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := sceneConfig(cmd, args[0], 5)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("seed") {
		base.Seed = 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         base,
		Perturbation: mcKick,
		NumTrials:    trials,
	}, log)

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%s: %d stable, %d unstable of %d trials\n", base.Scene, stable, unstable, len(results))
	return err
}

func serveScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(); err != nil {
		return err
	}

	hub := stream.NewHub(streamEvery, log)
	defer hub.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server failed", "error", err)
		}
	}()
	log.Infow("streaming", "addr", addr, "path", "/ws", "scene", cfg.Scene)

	ctx, cancel := signalContext()
	defer cancel()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}()

	sim := exp.Simulator()
	sim.AddObserver(hub)
	if realtime {
		sim.AddObserver(newPacer(exp.World().Timestep()))
	}

	result, err := exp.Run(ctx)
	if result != nil {
		log.Infow("stream finished", "steps", result.StepsTaken)
	}
	return err
}

func watchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// the terminal belongs to the UI
	quiet := zap.NewNop().Sugar()
	return tui.Run(cfg.Scene, func() (*world.World, error) {
		return experiment.BuildWorld(cfg, quiet)
	})
}

func resumeRun(cmd *cobra.Command, args []string) error {
	st := newStore()
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snap, err := st.LoadCheckpoint(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Scene = meta.Scene
	cfg.Seed = meta.Seed
	cfg.Duration = 5
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if meta.Dt > 0 {
		cfg.World.Dt = meta.Dt
	}
	for k, v := range meta.Params {
		cfg.Params[k] = v
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(); err != nil {
		return err
	}
	if err := exp.World().Restore(snap); err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := exp.Run(ctx)
	if result == nil {
		return err
	}

	runID, serr := st.Save(cfg, result)
	if serr != nil {
		return serr
	}
	if serr := st.SaveCheckpoint(runID, exp.World().Snapshot()); serr != nil {
		return serr
	}
	fmt.Printf("resumed %s at t=%.2fs\n", meta.ID, snap.Time)
	fmt.Printf("run id: %s\n", runID)
	return err
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want name=v1,v2", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneScene(cmd *cobra.Command, args []string) error {
	base, err := sceneConfig(cmd, args[0], 2)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, val, err := optim.NewGridSearch(names, ranges).Search(ctx, base, tuneMetric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s = %.6f\n", tuneMetric, val)
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}
