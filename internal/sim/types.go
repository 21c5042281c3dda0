package sim

import (
	"fmt"
	"time"
)

// Stepper is the part of a physics world the driver advances.
type Stepper interface {
	Step(dt float64) error
}

// Clock supplies the elapsed seconds the launch timeline is keyed on.
type Clock interface {
	Elapsed() float64
}

// Pausable is a clock that keeps advancing on its own and must be told when
// the launch is paused.
type Pausable interface {
	Pause()
	Resume()
}

type ClockKind string

const (
	ClockVirtual ClockKind = "virtual"
	ClockWall    ClockKind = "wall"
)

func ParseClock(s string) (ClockKind, error) {
	switch ClockKind(s) {
	case ClockVirtual, "":
		return ClockVirtual, nil
	case ClockWall:
		return ClockWall, nil
	}
	return "", fmt.Errorf("unknown clock %q (want virtual or wall)", s)
}

type Config struct {
	Dt  float64
	FPS int
}

func DefaultConfig() Config {
	return Config{
		Dt:  1.0 / 60,
		FPS: 60,
	}
}

// Interval is the pacing between ticks; zero means unpaced.
func (c Config) Interval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.FPS < 0 {
		return fmt.Errorf("fps must not be negative, got %d", cfg.FPS)
	}
	return nil
}
