package sequence

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/camera"
	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/integrators"
	"github.com/san-kum/launchsim/internal/launch"
	"github.com/san-kum/launchsim/internal/physics"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sim"
)

const defaultAspect = 16.0 / 9

// Launch is a fully wired launch set.
type Launch struct {
	Config     *config.Config
	Scene      *scene.LaunchScene
	World      *physics.World
	Body       *physics.Body
	Pad        *physics.Body
	Driver     *sim.Driver
	Clock      sim.Clock
	Loop       *sim.Loop
	Rigs       *camera.Rigs
	Orbit      *camera.Orbit
	Zoom       *camera.Zoom
	Switcher   *camera.Switcher
	Controller *Controller
}

// Build assembles a launch from cfg. A nil loader uses the built-in rocket.
// A loader failure is logged and the launch runs without renderables.
func Build(cfg *config.Config, loader scene.ModelLoader, log zerolog.Logger) (*Launch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tl, err := launch.NewTimeline(cfg.Profile())
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Physics.Integrator)
	if err != nil {
		return nil, err
	}
	kind, err := sim.ParseClock(cfg.Clock)
	if err != nil {
		return nil, err
	}

	world := physics.NewWorld(dynamo.Vec3{Y: -cfg.Physics.Gravity}, integ)
	world.AllowSleep = cfg.Physics.AllowSleep
	world.SleepSpeedLimit = cfg.Physics.SleepSpeedLimit
	world.SleepTimeLimit = cfg.Physics.SleepTimeLimit

	start := dynamo.Vec3{Y: cfg.Rocket.StartHeight}
	sc, err := scene.NewLaunchScene(scene.LaunchOptions{
		RocketStart: start,
		ChaseOffset: cfg.Camera.ChaseOffset,
		Loader:      loader,
	})
	if err != nil {
		return nil, err
	}
	if sc.LoadErr != nil {
		log.Warn().Err(sc.LoadErr).Msg("rocket model unavailable, running without it")
	}

	// The rocket is inert (static, no gravity) until ignition.
	body := physics.NewBody(scene.NodeRocket, 0, start)
	body.LinearDamping = cfg.Rocket.LinearDamping
	world.AddBody(body)
	pad := physics.NewBody(scene.NodePad, 0, dynamo.Vec3{})
	world.AddBody(pad)

	syncer := scene.NewSynchronizer(cfg.Rocket.JitterAmplitude, cfg.Seed)
	syncer.Bind(pad, sc.Pad)
	if sc.HasRocket() {
		syncer.Bind(body, sc.Rocket)
		if err := syncer.SetVibrationTarget(body, sc.Rocket); err != nil {
			return nil, err
		}
	}

	driver, err := sim.NewDriver(world, cfg.Sim())
	if err != nil {
		return nil, err
	}

	newCam := func() *camera.Camera {
		return camera.NewPerspective(cfg.Camera.FOV, defaultAspect, cfg.Camera.Near, cfg.Camera.Far)
	}
	rigs := &camera.Rigs{World: newCam()}
	rigs.World.Position = cfg.Camera.WorldPosition
	if sc.Chase != nil {
		rigs.Chase = newCam()
		rigs.Chase.Position = sc.Chase.Position
		rigs.Chase.LookAt(dynamo.Vec3{})
		rigs.Mount = sc.Chase
	}
	orbit := camera.NewOrbit(rigs.World, dynamo.Vec3{})
	switcher := camera.NewSwitcher(orbit, rigs, log)
	switcher.TrackAt = cfg.Camera.TrackAt
	switcher.ChaseAt = cfg.Camera.ChaseAt

	ctrl, err := New(Options{
		Timeline: tl,
		Driver:   driver,
		Body:     body,
		Mass:     cfg.Rocket.Mass,
		Graph:    sc.Graph,
		Sync:     syncer,
		Switcher: switcher,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("integrator", cfg.Physics.Integrator).
		Str("clock", string(kind)).
		Float64("dt", cfg.Dt).
		Bool("rocket", sc.HasRocket()).
		Msg("launch assembled")

	return &Launch{
		Config:     cfg,
		Scene:      sc,
		World:      world,
		Body:       body,
		Pad:        pad,
		Driver:     driver,
		Clock:      sim.NewClock(kind, driver),
		Loop:       sim.NewLoop(cfg.Sim()),
		Rigs:       rigs,
		Orbit:      orbit,
		Zoom:       camera.NewZoom(orbit, cfg.Camera.ZoomSpeed),
		Switcher:   switcher,
		Controller: ctrl,
	}, nil
}

// SetAspect updates both cameras for a resized viewport.
func (l *Launch) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	l.Rigs.World.Aspect = aspect
	if l.Rigs.Chase != nil {
		l.Rigs.Chase.Aspect = aspect
	}
}

// View is the world-space camera for the active rig.
func (l *Launch) View() camera.Camera {
	return l.Rigs.View(l.Controller.Rig())
}

// Restore resumes a saved launch on this set, moving a wall clock to the
// saved elapsed time as well.
func (l *Launch) Restore(st State) {
	l.Controller.Restore(st)
	if wc, ok := l.Clock.(*sim.WallClock); ok {
		wc.Seek(st.Elapsed)
	}
}
