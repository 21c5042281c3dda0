package sim

import "time"

// Driver advances a world by a constant quantum once per tick. It keeps no
// accumulator: a slow frame slows simulated time rather than triggering
// catch-up steps.
type Driver struct {
	world  Stepper
	dt     float64
	steps  int
	halted bool
}

func NewDriver(world Stepper, cfg Config) (*Driver, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Driver{world: world, dt: cfg.Dt}, nil
}

// Tick steps the world by exactly one quantum. After Halt it is a no-op.
func (d *Driver) Tick() error {
	if d.halted {
		return nil
	}
	d.steps++
	return d.world.Step(d.dt)
}

func (d *Driver) Halt()            { d.halted = true }
func (d *Driver) Halted() bool     { return d.halted }
func (d *Driver) Steps() int       { return d.steps }
func (d *Driver) Dt() float64      { return d.dt }
func (d *Driver) Elapsed() float64 { return float64(d.steps) * d.dt }

// Seek moves the step count, and so the virtual clock, to steps without
// stepping the world.
func (d *Driver) Seek(steps int) {
	if steps < 0 {
		steps = 0
	}
	d.steps = steps
}

// WallClock measures elapsed real time from the first call to Start,
// excluding time spent paused.
type WallClock struct {
	start    time.Time
	now      func() time.Time
	paused   bool
	pausedAt time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

func (c *WallClock) Start() {
	c.start = c.now()
}

func (c *WallClock) Elapsed() float64 {
	return c.reading().Sub(c.start).Seconds()
}

// reading is the instant Elapsed is measured at: now, or the moment of
// pausing.
func (c *WallClock) reading() time.Time {
	if c.start.IsZero() {
		c.Start()
	}
	if c.paused {
		return c.pausedAt
	}
	return c.now()
}

func (c *WallClock) Pause() {
	if c.paused {
		return
	}
	c.pausedAt = c.reading()
	c.paused = true
}

// Resume shifts the start forward by the paused duration.
func (c *WallClock) Resume() {
	if !c.paused {
		return
	}
	c.paused = false
	c.start = c.start.Add(c.now().Sub(c.pausedAt))
}

// Seek makes Elapsed report elapsed seconds from now on.
func (c *WallClock) Seek(elapsed float64) {
	c.start = c.reading().Add(-time.Duration(elapsed * float64(time.Second)))
}

// NewClock returns the clock the timeline should be keyed on. The virtual
// clock is the driver's own step count, so staging stays locked to physics
// even when frames run late.
func NewClock(kind ClockKind, d *Driver) Clock {
	if kind == ClockWall {
		return NewWallClock()
	}
	return d
}
