// Package automation runs batches of headless launches: scripted scenarios,
// parameter sweeps and Monte Carlo trials.
package automation

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/metrics"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sequence"
)

// Scenario is a scripted list of launches.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Workers     int    `yaml:"workers"`
	Steps       []Step `yaml:"steps"`
}

// Step is one launch of a scenario: a preset plus overrides.
type Step struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Seed       int64              `yaml:"seed"`
	Set        map[string]float64 `yaml:"set"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}

// Jobs resolves every step to a validated config.
func (sc *Scenario) Jobs() ([]Job, error) {
	jobs := make([]Job, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		preset := step.Preset
		if preset == "" {
			preset = "default"
		}
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("step %s: unknown preset %q", name, preset)
		}
		if step.Integrator != "" {
			cfg.Physics.Integrator = step.Integrator
		}
		if step.Seed != 0 {
			cfg.Seed = step.Seed
		}
		for param, v := range step.Set {
			if err := SetParam(cfg, param, v); err != nil {
				return nil, fmt.Errorf("step %s: %w", name, err)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("step %s: %w", name, err)
		}
		jobs = append(jobs, Job{Name: name, Config: cfg})
	}
	return jobs, nil
}

// Job is one launch to run.
type Job struct {
	Name   string
	Config *config.Config
}

// Outcome is the result of one job. Err is set when the launch could not be
// built or failed mid-run; Result may still hold the frames up to the
// failure.
type Outcome struct {
	Name      string
	Config    *config.Config
	Result    *sequence.Result
	Recovered int
	Err       error
}

func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil && o.Result.Frozen }

// Runner runs jobs on a bounded pool. Launches are always run unpaced on the
// virtual clock so a batch finishes as fast as the host allows.
type Runner struct {
	Workers int
	Loader  scene.ModelLoader
	Log     zerolog.Logger
	Metrics func() []sequence.Metric
}

func NewRunner(workers int, log zerolog.Logger) *Runner {
	return &Runner{Workers: workers, Log: log, Metrics: metrics.Standard}
}

// Run executes jobs concurrently. Outcomes are in job order; a failed job
// does not stop the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]Outcome, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			out[i] = r.run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Runner) run(ctx context.Context, job Job) Outcome {
	cfg := job.Config.Clone()
	cfg.FPS = 0
	cfg.Clock = "virtual"
	o := Outcome{Name: job.Name, Config: cfg}

	log := r.Log.With().Str("job", job.Name).Logger()
	l, err := sequence.Build(cfg, r.Loader, log)
	if err != nil {
		o.Err = err
		return o
	}
	if r.Metrics != nil {
		for _, m := range r.Metrics() {
			l.Controller.AddMetric(m)
		}
	}

	o.Result, o.Err = l.Controller.RunRecorded(ctx, l.Loop, l.Clock)
	o.Recovered = l.Controller.Recovered()
	if o.Err != nil {
		log.Warn().Err(o.Err).Msg("job failed")
	} else {
		log.Debug().Int("ticks", o.Result.Ticks).Msg("job done")
	}
	return o
}

// Summary counts outcomes that reached the freeze and those that did not.
func Summary(outs []Outcome) (ok, failed int) {
	for _, o := range outs {
		if o.OK() {
			ok++
		} else {
			failed++
		}
	}
	return
}
