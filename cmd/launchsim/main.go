package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/export"
	"github.com/san-kum/launchsim/internal/logging"
	"github.com/san-kum/launchsim/internal/metrics"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sequence"
	"github.com/san-kum/launchsim/internal/storage"
	"github.com/san-kum/launchsim/internal/viz"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string
	logJSON    bool
	dataDir    string
	backend    string

	dt         float64
	fps        int
	seed       int64
	clock      string
	integrator string
	mass       float64
	noModel    bool
	noSave     bool
	outFile    string

	snapAt     float64
	snapWidth  int
	snapHeight int
	svgScale   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "launchsim",
		Short:         "staged rocket launch simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := newLogger(cmd, true)
			if err != nil {
				return err
			}
			defer closeLog()
			return viz.RunMenu(modelLoader(), log)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml, json or toml)")
	pf.StringVar(&preset, "preset", "", "base preset ("+fmt.Sprint(config.ListPresets())+")")
	pf.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&logJSON, "log-json", false, "emit JSON log lines")
	pf.StringVar(&dataDir, "data", "", "run storage directory")
	pf.StringVar(&backend, "backend", "", "run storage backend (file, sqlite)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a launch headless and archive it",
		Args:  cobra.NoArgs,
		RunE:  runLaunch,
	}
	addLaunchFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not archive the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a launch in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addLaunchFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot velocity and altitude of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "archive a run exported with export-json",
		Args:  cobra.ExactArgs(1),
		RunE:  importJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  dumpConfig,
	}
	addLaunchFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "save to file instead of printing")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the altitude trace of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render the scene at a point in the launch to SVG",
		Args:  cobra.NoArgs,
		RunE:  snapshot,
	}
	addLaunchFlags(snapshotCmd)
	sf := snapshotCmd.Flags()
	sf.Float64Var(&snapAt, "at", 20, "launch time to render, in seconds")
	sf.IntVar(&snapWidth, "width", 80, "canvas width in cells")
	sf.IntVar(&snapHeight, "height", 30, "canvas height in cells")
	sf.Float64Var(&svgScale, "scale", 4, "svg units per dot")
	sf.StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		importCmd, presetsCmd, configCmd, snapshotCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addLaunchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&dt, "dt", config.DefaultDt, "physics timestep in seconds")
	f.IntVar(&fps, "fps", config.DefaultFPS, "tick rate, 0 for unpaced")
	f.Int64Var(&seed, "seed", 1, "vibration jitter seed")
	f.StringVar(&clock, "clock", "virtual", "elapsed time source (virtual, wall)")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.Float64Var(&mass, "mass", config.DefaultMass, "rocket mass once ignited")
	f.BoolVar(&noModel, "no-model", false, "run without the rocket model")
}

// loadConfig layers the preset, config file, environment and explicitly
// set flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadPreset(configFile, preset)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("clock") {
		cfg.Clock = clock
	}
	if flags.Changed("integrator") {
		cfg.Physics.Integrator = integrator
	}
	if flags.Changed("mass") {
		cfg.Rocket.Mass = mass
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("data") {
		cfg.Storage.Dir = dataDir
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. A full screen view cannot share the
// terminal with log output, so quiet discards logs unless a file is given.
func newLogger(cmd *cobra.Command, quiet bool) (zerolog.Logger, func(), error) {
	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if cfg, err := config.LoadPreset(configFile, preset); err == nil {
			level = cfg.LogLevel
		}
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), closeFn, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, func() { f.Close() }
	case quiet:
		w = io.Discard
	}
	return logging.New(level, w, !logJSON && logFile == ""), closeFn, nil
}

func modelLoader() scene.ModelLoader {
	if noModel {
		return func() (*scene.Node, error) { return nil, errors.New("model disabled by --no-model") }
	}
	return scene.DefaultRocket
}

func openStore(cmd *cobra.Command) (storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer closeLog()

	l, err := sequence.Build(cfg, modelLoader(), log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard() {
		l.Controller.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running %s launch...\n", cfg.Preset)
	start := time.Now()
	res, err := l.Controller.RunRecorded(ctx, l.Loop, l.Clock)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	fmt.Printf("completed in %v\n", wall.Round(time.Millisecond))
	fmt.Printf("ticks: %d  frozen: %v  recovered: %d\n", res.Ticks, res.Frozen, l.Controller.Recovered())

	if !noSave {
		st, err := storage.Open(cfg.Storage)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(storage.NewRunMetadata(cfg, res), res.Frames)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}

	fmt.Println("\nmetrics:")
	printMetrics(res.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cmd, true)
	if err != nil {
		return err
	}
	defer closeLog()

	l, err := sequence.Build(cfg, modelLoader(), log)
	if err != nil {
		return err
	}
	return viz.Run(l, log)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tDT\tINTEG\tCLOCK\tFROZEN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%s\t%s\t%v\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Integrator,
			run.Clock,
			run.Frozen,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(frames))

	series := []struct {
		caption string
		value   func(sequence.Frame) float64
	}{
		{"target velocity y (m/s)", func(f sequence.Frame) float64 { return f.TargetVelocityY }},
		{"velocity y (m/s)", func(f sequence.Frame) float64 { return f.Velocity.Y }},
		{"altitude (m)", sequence.Frame.Altitude},
	}
	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = s.value(f)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteFramesCSV(os.Stdout, frames)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, frames)
}

func importJSON(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	meta, frames, err := storage.ImportJSON(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	if meta == nil {
		return fmt.Errorf("read %s: missing run metadata", args[0])
	}

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(*meta, frames)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", id)
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", outFile)
		return nil
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func writeOut(doc string) error {
	if outFile == "" {
		_, err := fmt.Println(doc)
		return err
	}
	if err := os.WriteFile(outFile, []byte(doc), 0644); err != nil {
		return err
	}
	fmt.Printf("saved %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	doc := export.TrajectorySVG(export.AltitudeTrace(frames), 800, 400, "#00ff88")
	if doc == "" {
		return fmt.Errorf("run %s has too few frames to plot", args[0])
	}
	return writeOut(doc)
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.FPS = 0
	cfg.Clock = "virtual"
	log, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return err
	}
	defer closeLog()

	l, err := sequence.Build(cfg, modelLoader(), log)
	if err != nil {
		return err
	}
	c, f, err := export.Snapshot(l, snapAt, snapWidth, snapHeight)
	if err != nil {
		return err
	}
	log.Info().
		Float64("elapsed", f.Elapsed).
		Stringer("stage", f.Stage).
		Stringer("rig", l.Controller.Rig()).
		Msg("snapshot taken")
	return writeOut(export.CanvasSVG(c, svgScale, "#00ff88"))
}
