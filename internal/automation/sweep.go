package automation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/launchsim/internal/config"
)

type param struct {
	get func(c *config.Config) float64
	set func(c *config.Config, v float64)
}

// params are the numeric settings scenarios, sweeps and trials may vary.
var params = map[string]param{
	"mass": {
		func(c *config.Config) float64 { return c.Rocket.Mass },
		func(c *config.Config, v float64) { c.Rocket.Mass = v },
	},
	"dt": {
		func(c *config.Config) float64 { return c.Dt },
		func(c *config.Config, v float64) { c.Dt = v },
	},
	"damping": {
		func(c *config.Config) float64 { return c.Rocket.LinearDamping },
		func(c *config.Config, v float64) { c.Rocket.LinearDamping = v },
	},
	"gravity": {
		func(c *config.Config) float64 { return c.Physics.Gravity },
		func(c *config.Config, v float64) { c.Physics.Gravity = v },
	},
	"jitter": {
		func(c *config.Config) float64 { return c.Rocket.JitterAmplitude },
		func(c *config.Config, v float64) { c.Rocket.JitterAmplitude = v },
	},
	"start_height": {
		func(c *config.Config) float64 { return c.Rocket.StartHeight },
		func(c *config.Config, v float64) { c.Rocket.StartHeight = v },
	},
}

func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func SetParam(c *config.Config, name string, v float64) error {
	p, ok := params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q (available: %v)", name, ParamNames())
	}
	p.set(c, v)
	return nil
}

func GetParam(c *config.Config, name string) (float64, error) {
	p, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q (available: %v)", name, ParamNames())
	}
	return p.get(c), nil
}

// Sweep varies one parameter over Steps evenly spaced values in [Min, Max].
type Sweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Steps int
}

func (s Sweep) Values() []float64 {
	if s.Steps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	vals := make([]float64, s.Steps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

func (s Sweep) Jobs() ([]Job, error) {
	if s.Base == nil {
		return nil, fmt.Errorf("sweep needs a base config")
	}
	vals := s.Values()
	jobs := make([]Job, 0, len(vals))
	for _, v := range vals {
		cfg := s.Base.Clone()
		if err := SetParam(cfg, s.Param, v); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s=%g", s.Param, v)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		jobs = append(jobs, Job{Name: name, Config: cfg})
	}
	return jobs, nil
}

// MonteCarlo perturbs one parameter of Base by a uniform relative amount in
// [-Perturbation, Perturbation] for each trial.
type MonteCarlo struct {
	Base         *config.Config
	Param        string
	Perturbation float64
	Trials       int
	Seed         int64
}

func (m MonteCarlo) Jobs() ([]Job, error) {
	if m.Base == nil {
		return nil, fmt.Errorf("monte carlo needs a base config")
	}
	base, err := GetParam(m.Base, m.Param)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(m.Seed))
	jobs := make([]Job, 0, m.Trials)
	for trial := 0; trial < m.Trials; trial++ {
		cfg := m.Base.Clone()
		v := base * (1 + (rng.Float64()-0.5)*2*m.Perturbation)
		name := fmt.Sprintf("trial-%d", trial+1)
		if err := SetParam(cfg, m.Param, v); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s (%s=%g): %w", name, m.Param, v, err)
		}
		jobs = append(jobs, Job{Name: name, Config: cfg})
	}
	return jobs, nil
}

// Best returns the successful outcome with the lowest metric value, or the
// highest when maximize is set.
func Best(outs []Outcome, metric string, maximize bool) (Outcome, bool) {
	best := math.Inf(1)
	if maximize {
		best = math.Inf(-1)
	}
	var found Outcome
	ok := false
	for _, o := range outs {
		if !o.OK() {
			continue
		}
		v, has := o.Result.Metrics[metric]
		if !has {
			continue
		}
		if (maximize && v > best) || (!maximize && v < best) {
			best, found, ok = v, o, true
		}
	}
	return found, ok
}

// Stats is the spread of one metric over successful outcomes.
type Stats struct {
	N              int
	Mean, Min, Max float64
}

func MetricStats(outs []Outcome, metric string) Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.0
	for _, o := range outs {
		if !o.OK() {
			continue
		}
		v, has := o.Result.Metrics[metric]
		if !has {
			continue
		}
		s.N++
		sum += v
		s.Min, s.Max = math.Min(s.Min, v), math.Max(s.Max, v)
	}
	if s.N == 0 {
		return Stats{}
	}
	s.Mean = sum / float64(s.N)
	return s
}
