package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/physics"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sim"
)

// State is everything needed to resume a launch: the timeline latches, the
// active camera rig, the clock position and the rocket's pose.
type State struct {
	Launch  launch.State `json:"launch"`
	Rig     camera.Rig   `json:"rig"`
	Ticks   int          `json:"ticks"`
	Steps   int          `json:"steps"`
	Elapsed float64      `json:"elapsed"`
	Body    *BodyPose    `json:"body,omitempty"`
}

type BodyPose struct {
	Position    dynamo.Vec3 `json:"position"`
	Orientation dynamo.Quat `json:"orientation"`
	Velocity    dynamo.Vec3 `json:"velocity"`
}

// Options wires a Controller. Timeline and Driver are required; every other
// collaborator may be nil, in which case the effects that need it are
// skipped.
type Options struct {
	Timeline *launch.Timeline
	Driver   *sim.Driver
	Body     *physics.Body
	Mass     float64
	Graph    *scene.Graph
	Sync     *scene.Synchronizer
	Switcher *camera.Switcher
	Logger   zerolog.Logger
}

type Controller struct {
	timeline *launch.Timeline
	driver   *sim.Driver
	body     *physics.Body
	mass     float64
	graph    *scene.Graph
	sync     *scene.Synchronizer
	switcher *camera.Switcher
	log      zerolog.Logger

	state     State
	ticks     int
	last      Frame
	recovered int
	metrics   []Metric
	observers []Observer
}

func New(opts Options) (*Controller, error) {
	if opts.Timeline == nil {
		return nil, errors.New("sequence: timeline is required")
	}
	if opts.Driver == nil {
		return nil, errors.New("sequence: driver is required")
	}
	mass := opts.Mass
	if mass <= 0 {
		mass = 1
	}
	return &Controller{
		timeline: opts.Timeline,
		driver:   opts.Driver,
		body:     opts.Body,
		mass:     mass,
		graph:    opts.Graph,
		sync:     opts.Sync,
		switcher: opts.Switcher,
		log:      opts.Logger,
	}, nil
}

func (c *Controller) AddMetric(m Metric)     { c.metrics = append(c.metrics, m) }
func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

func (c *Controller) Rig() camera.Rig     { return c.state.Rig }
func (c *Controller) Frozen() bool        { return c.state.Launch.Frozen() }
func (c *Controller) Ticks() int          { return c.ticks }
func (c *Controller) Last() Frame         { return c.last }
func (c *Controller) Recovered() int      { return c.recovered }
func (c *Controller) Body() *physics.Body { return c.body }

// State snapshots the launch for a later Restore.
func (c *Controller) State() State {
	st := State{
		Launch:  c.state.Launch,
		Rig:     c.state.Rig,
		Ticks:   c.ticks,
		Steps:   c.driver.Steps(),
		Elapsed: c.last.Elapsed,
	}
	if c.body != nil {
		st.Body = &BodyPose{
			Position:    c.body.Position,
			Orientation: c.body.Orientation,
			Velocity:    c.body.Velocity,
		}
	}
	return st
}

func (c *Controller) Metrics() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Tick runs one tick at the given elapsed time. Once the launch is frozen
// nothing is evaluated or stepped any more: Tick returns the final frame
// and dynamo.ErrFrozen.
func (c *Controller) Tick(elapsed float64) (Frame, error) {
	if c.state.Launch.Frozen() {
		return c.last, dynamo.ErrFrozen
	}
	c.ticks++

	st, sp := c.timeline.Advance(c.state.Launch, elapsed)
	c.state.Launch = st

	c.guard("effects", elapsed, func() { c.applyEffects(sp) })

	if sp.Freeze {
		c.driver.Halt()
		c.log.Info().
			Float64("elapsed", elapsed).
			Int("tick", c.ticks).
			Msg("launch frozen")
	}

	var stepErr error
	if err := c.driver.Tick(); err != nil {
		stepErr = &dynamo.TickError{Tick: c.ticks, Elapsed: elapsed, Wrapped: err}
	}

	if c.sync != nil {
		c.guard("sync", elapsed, func() { c.sync.Sync(sp.Vibrating) })
	}
	if c.switcher != nil {
		c.guard("camera", elapsed, func() {
			c.state.Rig = c.switcher.Evaluate(elapsed, c.state.Rig, c.body)
		})
	}

	f := c.frame(sp)
	c.last = f
	for _, m := range c.metrics {
		m.Observe(f)
	}
	for _, o := range c.observers {
		o.OnFrame(f)
	}
	return f, stepErr
}

func (c *Controller) applyEffects(sp launch.Setpoint) {
	if sp.StageChanged {
		c.log.Info().
			Float64("elapsed", sp.Elapsed).
			Str("stage", sp.Stage.String()).
			Float64("velocity", sp.TargetVelocityY).
			Msg("stage change")
	}

	b := c.body
	if sp.Activate && b != nil {
		b.Activate(c.mass)
		c.log.Info().Float64("elapsed", sp.Elapsed).Float64("mass", c.mass).Msg("rocket activated")
	}

	for _, v := range sp.Visibility {
		if c.graph == nil || !c.graph.SetVisible(v.Effect, v.Visible) {
			c.log.Debug().Str("effect", v.Effect).Msg("effect node missing, skipped")
		}
	}

	if b == nil {
		return
	}
	if sp.Freeze {
		b.Halt()
		return
	}
	if c.state.Launch.Activated() {
		// A sleeping body ignores velocity writes.
		b.WakeUp()
		b.Velocity.Y = sp.TargetVelocityY
	}
}

// guard runs an optional effect, containing any panic to that effect.
func (c *Controller) guard(effect string, elapsed float64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.recovered++
			c.log.Error().
				Str("effect", effect).
				Float64("elapsed", elapsed).
				Interface("panic", r).
				Msg("tick effect failed")
		}
	}()
	fn()
}

func (c *Controller) frame(sp launch.Setpoint) Frame {
	f := Frame{
		Tick:            c.ticks,
		Elapsed:         sp.Elapsed,
		Stage:           sp.Stage,
		TargetVelocityY: sp.TargetVelocityY,
		Vibrating:       sp.Vibrating,
		Frozen:          c.state.Launch.Frozen(),
		Rig:             c.state.Rig,
	}
	if c.body != nil {
		f.HasBody = true
		f.Position = c.body.Position
		f.Velocity = c.body.Velocity
	}
	return f
}

// Restore resumes from a saved state: the driver's step count and the
// rocket's pose are put back and the effects the latches imply are
// reapplied. A wall clock has to be seeked separately, see Launch.Restore.
func (c *Controller) Restore(st State) {
	ls := st.Launch
	c.state = State{Launch: ls, Rig: st.Rig}
	c.ticks = st.Ticks
	c.driver.Seek(st.Steps)

	if b := c.body; b != nil {
		if ls.Activated() {
			b.Activate(c.mass)
		}
		if st.Body != nil {
			b.Position = st.Body.Position
			b.Orientation = st.Body.Orientation
			b.Velocity = st.Body.Velocity
		}
	}
	if c.sync != nil {
		c.guard("sync", st.Elapsed, func() { c.sync.Sync(false) })
	}
	if c.graph != nil {
		c.graph.SetVisible(launch.EffectIgnition, ls.Ignition.Fired && !ls.Sustain.Fired)
		c.graph.SetVisible(launch.EffectSustain, ls.Sustain.Fired)
	}
	if st.Rig == camera.RigChase && c.switcher != nil && !c.switcher.Cut(st.Elapsed) {
		c.state.Rig = camera.RigWorld
	}

	if ls.Frozen() {
		c.driver.Halt()
		if c.body != nil {
			c.body.Halt()
		}
		c.last = c.frame(launch.Setpoint{Elapsed: ls.Freeze.At, Stage: launch.Frozen})
	} else {
		c.last = c.frame(launch.Setpoint{
			Elapsed:         st.Elapsed,
			Stage:           ls.Stage,
			TargetVelocityY: c.timeline.TargetVelocity(st.Elapsed),
			Vibrating:       ls.Stage == launch.Vibrating,
		})
	}
	c.log.Info().
		Str("stage", ls.Stage.String()).
		Str("rig", c.state.Rig.String()).
		Float64("elapsed", st.Elapsed).
		Msg("state restored")
}

// Run ticks the controller from loop, reading elapsed time from clock, until
// the launch freezes or ctx is done. A failed physics step costs only that
// tick; the first failure is returned once the loop ends.
func (c *Controller) Run(ctx context.Context, loop *sim.Loop, clock sim.Clock) error {
	for _, m := range c.metrics {
		m.Reset()
	}

	var firstErr error
	failed := 0
	err := loop.Run(ctx, func() bool {
		f, err := c.Tick(clock.Elapsed())
		if errors.Is(err, dynamo.ErrFrozen) {
			return false
		}
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			c.log.Warn().Err(err).Int("tick", f.Tick).Msg("tick failed, continuing")
		}
		return !f.Frozen
	})
	if err != nil {
		return err
	}
	if firstErr != nil {
		return fmt.Errorf("launch run: %d failed tick(s), first: %w", failed, firstErr)
	}
	return nil
}

// RunRecorded runs to completion and returns every frame plus the metric
// values.
func (c *Controller) RunRecorded(ctx context.Context, loop *sim.Loop, clock sim.Clock) (*Result, error) {
	rec := &Recorder{}
	c.AddObserver(rec)
	defer c.removeObserver(rec)

	err := c.Run(ctx, loop, clock)
	return &Result{
		Frames:  rec.Frames,
		Metrics: c.Metrics(),
		Ticks:   c.ticks,
		Frozen:  c.Frozen(),
	}, err
}

func (c *Controller) removeObserver(o Observer) {
	for i, other := range c.observers {
		if other == o {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}
