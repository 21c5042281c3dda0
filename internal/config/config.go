package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/integrators"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/sim"
)

const (
	DefaultDt       = 1.0 / 60
	DefaultFPS      = 60
	DefaultMass     = 1000.0
	DefaultFOV      = 75.0
	DefaultNear     = 0.1
	DefaultFar      = 5000.0
	DefaultTrackAt  = 9.0
	DefaultChaseAt  = 17.0
	DefaultZoomRate = 0.001
	DefaultRunsDir  = "runs"

	EnvPrefix = "LAUNCHSIM"
)

// Backends are the run archive implementations storage.Open accepts.
var Backends = []string{"file", "sqlite"}

type Config struct {
	Preset   string         `yaml:"preset" mapstructure:"preset"`
	Dt       float64        `yaml:"dt" mapstructure:"dt"`
	FPS      int            `yaml:"fps" mapstructure:"fps"`
	Seed     int64          `yaml:"seed" mapstructure:"seed"`
	Clock    string         `yaml:"clock" mapstructure:"clock"`
	LogLevel string         `yaml:"log_level" mapstructure:"log_level"`
	Timeline TimelineConfig `yaml:"timeline" mapstructure:"timeline"`
	Rocket   RocketConfig   `yaml:"rocket" mapstructure:"rocket"`
	Camera   CameraConfig   `yaml:"camera" mapstructure:"camera"`
	Physics  PhysicsConfig  `yaml:"physics" mapstructure:"physics"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
}

type TimelineConfig struct {
	Stages     []launch.Row `yaml:"stages" mapstructure:"stages"`
	IgnitionAt float64      `yaml:"ignition_at" mapstructure:"ignition_at"`
	SustainAt  float64      `yaml:"sustain_at" mapstructure:"sustain_at"`
	VibrateAt  float64      `yaml:"vibrate_at" mapstructure:"vibrate_at"`
	FreezeAt   float64      `yaml:"freeze_at" mapstructure:"freeze_at"`
}

type RocketConfig struct {
	Mass            float64 `yaml:"mass" mapstructure:"mass"`
	StartHeight     float64 `yaml:"start_height" mapstructure:"start_height"`
	LinearDamping   float64 `yaml:"linear_damping" mapstructure:"linear_damping"`
	JitterAmplitude float64 `yaml:"jitter_amplitude" mapstructure:"jitter_amplitude"`
}

type CameraConfig struct {
	FOV           float64     `yaml:"fov" mapstructure:"fov"`
	Near          float64     `yaml:"near" mapstructure:"near"`
	Far           float64     `yaml:"far" mapstructure:"far"`
	WorldPosition dynamo.Vec3 `yaml:"world_position" mapstructure:"world_position"`
	ChaseOffset   dynamo.Vec3 `yaml:"chase_offset" mapstructure:"chase_offset"`
	TrackAt       float64     `yaml:"track_at" mapstructure:"track_at"`
	ChaseAt       float64     `yaml:"chase_at" mapstructure:"chase_at"`
	ZoomSpeed     float64     `yaml:"zoom_speed" mapstructure:"zoom_speed"`
}

type PhysicsConfig struct {
	Gravity         float64 `yaml:"gravity" mapstructure:"gravity"`
	Integrator      string  `yaml:"integrator" mapstructure:"integrator"`
	AllowSleep      bool    `yaml:"allow_sleep" mapstructure:"allow_sleep"`
	SleepSpeedLimit float64 `yaml:"sleep_speed_limit" mapstructure:"sleep_speed_limit"`
	SleepTimeLimit  float64 `yaml:"sleep_time_limit" mapstructure:"sleep_time_limit"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

func DefaultConfig() *Config {
	p := launch.DefaultProfile()
	return &Config{
		Preset:   "default",
		Dt:       DefaultDt,
		FPS:      DefaultFPS,
		Seed:     1,
		Clock:    string(sim.ClockVirtual),
		LogLevel: "info",
		Timeline: TimelineConfig{
			Stages:     p.Rows,
			IgnitionAt: p.IgnitionAt,
			SustainAt:  p.SustainAt,
			VibrateAt:  p.VibrateAt,
			FreezeAt:   p.FreezeAt,
		},
		Rocket: RocketConfig{
			Mass:            DefaultMass,
			JitterAmplitude: 0.5,
		},
		Camera: CameraConfig{
			FOV:           DefaultFOV,
			Near:          DefaultNear,
			Far:           DefaultFar,
			WorldPosition: dynamo.Vec3{X: 5, Y: 5, Z: 5},
			ChaseOffset:   dynamo.Vec3{Y: 3, Z: 10},
			TrackAt:       DefaultTrackAt,
			ChaseAt:       DefaultChaseAt,
			ZoomSpeed:     DefaultZoomRate,
		},
		Physics: PhysicsConfig{
			Gravity:         9.82,
			Integrator:      "rk4",
			AllowSleep:      true,
			SleepSpeedLimit: 0.1,
			SleepTimeLimit:  1.0,
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     DefaultRunsDir,
		},
	}
}

// envKeys are the settings that can be overridden from the environment as
// LAUNCHSIM_<KEY>, dots becoming underscores.
var envKeys = []string{
	"preset", "dt", "fps", "seed", "clock", "log_level",
	"rocket.mass", "rocket.jitter_amplitude",
	"physics.integrator", "physics.gravity",
	"storage.backend", "storage.dir",
}

// Load reads a YAML, JSON or TOML file on top of the defaults. An empty path
// loads the defaults alone; environment overrides apply either way.
func Load(path string) (*Config, error) {
	return LoadPreset(path, "")
}

// LoadPreset is Load with a named preset as the base instead of the
// defaults. An empty name falls back to the preset key of the file or
// environment, if any.
func LoadPreset(path, preset string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if preset == "" {
		preset = v.GetString("preset")
	}
	if preset != "" {
		if cfg = GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, ListPresets())
		}
	}
	// A table in the file replaces the default one rather than merging
	// element by element.
	if v.IsSet("timeline.stages") {
		cfg.Timeline.Stages = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Profile is the launch timeline described by the config.
func (c *Config) Profile() launch.Profile {
	rows := make([]launch.Row, len(c.Timeline.Stages))
	copy(rows, c.Timeline.Stages)
	return launch.Profile{
		Rows:       rows,
		IgnitionAt: c.Timeline.IgnitionAt,
		SustainAt:  c.Timeline.SustainAt,
		VibrateAt:  c.Timeline.VibrateAt,
		FreezeAt:   c.Timeline.FreezeAt,
	}
}

func (c *Config) Sim() sim.Config {
	return sim.Config{Dt: c.Dt, FPS: c.FPS}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Timeline.Stages = slices.Clone(c.Timeline.Stages)
	return &out
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must not be negative, got %d", c.FPS)
	}
	if _, err := sim.ParseClock(c.Clock); err != nil {
		return err
	}
	if err := c.Profile().Validate(); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if c.Rocket.Mass <= 0 {
		return fmt.Errorf("rocket mass must be positive, got %f", c.Rocket.Mass)
	}
	if c.Rocket.JitterAmplitude < 0 {
		return fmt.Errorf("jitter amplitude must not be negative, got %f", c.Rocket.JitterAmplitude)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180), got %f", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip range invalid: near=%f far=%f", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.ZoomSpeed <= 0 {
		return fmt.Errorf("zoom speed must be positive, got %f", c.Camera.ZoomSpeed)
	}
	if !slices.Contains(integrators.Names(), c.Physics.Integrator) {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownIntegrator, c.Physics.Integrator)
	}
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q (want one of %s)", c.Storage.Backend, strings.Join(Backends, ", "))
	}
	return nil
}
