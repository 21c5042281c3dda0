package config

import "sort"

var presets = map[string]func(c *Config){
	"default": func(c *Config) {},
	// Unpaced at half the step rate, for batch runs and CI.
	"quick": func(c *Config) {
		c.Dt = 1.0 / 30
		c.FPS = 0
		c.LogLevel = "warn"
	},
	"heavy": func(c *Config) {
		c.Rocket.Mass = 50000
		c.Rocket.LinearDamping = 0.02
		c.Rocket.JitterAmplitude = 1.0
		c.Physics.Integrator = "verlet"
	},
	"realtime": func(c *Config) {
		c.Clock = "wall"
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = name
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
