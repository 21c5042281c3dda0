package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "default", cfg.Preset)
	assert.InDelta(t, 1.0/60, cfg.Dt, 1e-12)
	assert.Equal(t, "virtual", cfg.Clock)
	assert.Equal(t, launch.DefaultProfile(), cfg.Profile())
	assert.Equal(t, 17.0, cfg.Camera.ChaseAt)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launch.yaml")
	body := `
dt: 0.02
physics:
  integrator: verlet
camera:
  chase_offset: {x: 1, y: 2, z: 3}
timeline:
  stages:
    - {at: 3, velocity: 5}
    - {at: 10, velocity: 50}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.Dt)
	assert.Equal(t, "verlet", cfg.Physics.Integrator)
	assert.Equal(t, dynamo.Vec3{X: 1, Y: 2, Z: 3}, cfg.Camera.ChaseOffset)
	assert.Equal(t, []launch.Row{{At: 3, Velocity: 5}, {At: 10, Velocity: 50}}, cfg.Timeline.Stages)
	// untouched keys keep their defaults
	assert.Equal(t, 30.0, cfg.Timeline.FreezeAt)
	assert.Equal(t, DefaultFPS, cfg.FPS)
	assert.True(t, cfg.Physics.AllowSleep)
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"seed": 42, "storage": {"backend": "sqlite"}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, DefaultRunsDir, cfg.Storage.Dir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LAUNCHSIM_FPS", "0")
	t.Setenv("LAUNCHSIM_PHYSICS_INTEGRATOR", "euler")
	t.Setenv("LAUNCHSIM_STORAGE_DIR", "/tmp/launches")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.FPS)
	assert.Equal(t, "euler", cfg.Physics.Integrator)
	assert.Equal(t, "/tmp/launches", cfg.Storage.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/launch.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := GetPreset("heavy")
	require.NotNil(t, cfg)

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt must be positive"},
		{"negative fps", func(c *Config) { c.FPS = -1 }, "fps must not be negative"},
		{"bad clock", func(c *Config) { c.Clock = "sundial" }, "unknown clock"},
		{"empty table", func(c *Config) { c.Timeline.Stages = nil }, "stage table is empty"},
		{"unsorted table", func(c *Config) {
			c.Timeline.Stages = []launch.Row{{At: 5, Velocity: 1}, {At: 3, Velocity: 2}}
		}, "strictly increasing"},
		{"freeze before ignition", func(c *Config) { c.Timeline.FreezeAt = 1 }, "freeze time"},
		{"zero mass", func(c *Config) { c.Rocket.Mass = 0 }, "rocket mass"},
		{"wide fov", func(c *Config) { c.Camera.FOV = 180 }, "fov"},
		{"inverted clip", func(c *Config) { c.Camera.Far = 0.01 }, "clip range"},
		{"unknown integrator", func(c *Config) { c.Physics.Integrator = "rk45" }, "unknown integrator"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "unknown storage backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Timeline.Stages[0].Velocity = 99

	assert.Equal(t, 1.0, cfg.Timeline.Stages[0].Velocity)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"default", "heavy", "quick", "realtime"}, names)

	for _, name := range names {
		cfg := GetPreset(name)
		require.NotNil(t, cfg, name)
		assert.Equal(t, name, cfg.Preset)
		assert.NoError(t, cfg.Validate(), name)
	}

	assert.Equal(t, 0, GetPreset("quick").FPS)
	assert.Equal(t, "wall", GetPreset("realtime").Clock)
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestLoadPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: heavy\nfps: 30\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "heavy", cfg.Preset)
	assert.Equal(t, 50000.0, cfg.Rocket.Mass)
	assert.Equal(t, 30, cfg.FPS)

	cfg, err = LoadPreset("", "realtime")
	require.NoError(t, err)
	assert.Equal(t, "wall", cfg.Clock)

	_, err = LoadPreset("", "orbital")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}
