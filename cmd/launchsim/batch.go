package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/launchsim/internal/automation"
	"github.com/san-kum/launchsim/internal/storage"
)

var (
	workers      int
	sweepParam   string
	mcParam      string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	metricName   string
	maximize     bool
	trials       int
	perturbation float64
	saveRuns     bool
)

func batchCommands() []*cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter over a range",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sf := sweepCmd.Flags()
	sf.StringVar(&sweepParam, "param", "gravity", fmt.Sprint("parameter to sweep ", automation.ParamNames()))
	sf.Float64Var(&sweepMin, "min", 0, "first value")
	sf.Float64Var(&sweepMax, "max", 20, "last value")
	sf.IntVar(&sweepSteps, "steps", 5, "number of values")
	sf.StringVar(&metricName, "metric", "max_altitude", "metric to rank by")
	sf.BoolVar(&maximize, "maximize", false, "rank the highest value first")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run trials with one parameter randomly perturbed",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	mf := mcCmd.Flags()
	mf.StringVar(&mcParam, "param", "mass", fmt.Sprint("parameter to perturb ", automation.ParamNames()))
	mf.Float64Var(&perturbation, "perturbation", 0.1, "relative perturbation, 0.1 is +-10%")
	mf.IntVar(&trials, "trials", 20, "number of trials")
	mf.StringVar(&metricName, "metric", "max_altitude", "metric to summarize")

	for _, c := range []*cobra.Command{batchCmd, sweepCmd, mcCmd} {
		c.Flags().IntVarP(&workers, "workers", "w", 0, "parallel launches, 0 for one per CPU")
		c.Flags().BoolVar(&saveRuns, "save", false, "archive every successful run")
	}
	addLaunchFlags(sweepCmd)
	addLaunchFlags(mcCmd)
	return []*cobra.Command{batchCmd, sweepCmd, mcCmd}
}

func runJobs(cmd *cobra.Command, jobs []automation.Job, n int) ([]automation.Outcome, error) {
	log, closeLog, err := newLogger(cmd, false)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := automation.NewRunner(n, log)
	r.Loader = modelLoader()

	fmt.Printf("running %d launches...\n", len(jobs))
	start := time.Now()
	outs := r.Run(ctx, jobs)
	ok, failed := automation.Summary(outs)
	fmt.Printf("completed in %v: %d frozen, %d failed\n\n", time.Since(start).Round(time.Millisecond), ok, failed)

	if saveRuns {
		if err := archive(cmd, outs); err != nil {
			return outs, err
		}
	}
	return outs, nil
}

func archive(cmd *cobra.Command, outs []automation.Outcome) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, o := range outs {
		if !o.OK() {
			continue
		}
		id, err := st.Save(storage.NewRunMetadata(o.Config, o.Result), o.Result.Frames)
		if err != nil {
			return fmt.Errorf("save %s: %w", o.Name, err)
		}
		fmt.Printf("  %s -> %s\n", o.Name, id)
	}
	return nil
}

func printOutcomes(outs []automation.Outcome, metric string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "JOB\tTICKS\tFROZEN\tRECOVERED\t%s\tERROR\n", metric)
	for _, o := range outs {
		ticks, frozen, value := 0, false, "-"
		if o.Result != nil {
			ticks, frozen = o.Result.Ticks, o.Result.Frozen
			if v, ok := o.Result.Metrics[metric]; ok {
				value = fmt.Sprintf("%.4f", v)
			}
		}
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%d\t%s\t%s\n", o.Name, ticks, frozen, o.Recovered, value, errText)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	jobs, err := sc.Jobs()
	if err != nil {
		return err
	}
	n := workers
	if !cmd.Flags().Changed("workers") && sc.Workers > 0 {
		n = sc.Workers
	}
	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}
	outs, err := runJobs(cmd, jobs, n)
	if err != nil {
		return err
	}
	return printOutcomes(outs, "max_altitude")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	jobs, err := automation.Sweep{Base: cfg, Param: sweepParam, Min: sweepMin, Max: sweepMax, Steps: sweepSteps}.Jobs()
	if err != nil {
		return err
	}
	outs, err := runJobs(cmd, jobs, workers)
	if err != nil {
		return err
	}
	if err := printOutcomes(outs, metricName); err != nil {
		return err
	}
	if best, ok := automation.Best(outs, metricName, maximize); ok {
		fmt.Printf("\nbest: %s (%s = %.4f)\n", best.Name, metricName, best.Result.Metrics[metricName])
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	jobs, err := automation.MonteCarlo{
		Base:         cfg,
		Param:        mcParam,
		Perturbation: perturbation,
		Trials:       trials,
		Seed:         cfg.Seed,
	}.Jobs()
	if err != nil {
		return err
	}
	outs, err := runJobs(cmd, jobs, workers)
	if err != nil {
		return err
	}
	s := automation.MetricStats(outs, metricName)
	if s.N == 0 {
		return fmt.Errorf("no successful trials reported %s", metricName)
	}
	fmt.Printf("%s over %d trials: mean %.4f  min %.4f  max %.4f\n", metricName, s.N, s.Mean, s.Min, s.Max)
	return nil
}
