package camera

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/physics"
	"github.com/san-kum/launchsim/internal/scene"
)

const (
	DefaultTrackAt = 9.0
	DefaultChaseAt = 17.0
)

type Rig int

const (
	RigWorld Rig = iota
	RigChase
)

func (r Rig) String() string {
	if r == RigChase {
		return "chase"
	}
	return "world"
}

func (r Rig) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rig) UnmarshalText(b []byte) error {
	switch string(b) {
	case "world":
		*r = RigWorld
	case "chase":
		*r = RigChase
	default:
		return fmt.Errorf("unknown camera rig %q", b)
	}
	return nil
}

// Rigs pairs the free world camera with the chase camera. Chase coordinates
// are in the frame of Mount's parent, so the chase camera rides along with
// whatever Mount is attached to.
type Rigs struct {
	World *Camera
	Chase *Camera
	Mount *scene.Node
}

// HasChase reports whether a chase camera can be cut to.
func (r *Rigs) HasChase() bool {
	return r.Chase != nil && r.Mount != nil
}

// Camera returns the camera controls act on for rig.
func (r *Rigs) Camera(rig Rig) *Camera {
	if rig == RigChase && r.HasChase() {
		return r.Chase
	}
	return r.World
}

// View returns the world-space camera to draw rig from.
func (r *Rigs) View(rig Rig) Camera {
	if rig != RigChase || !r.HasChase() {
		return *r.World
	}
	view := *r.Chase
	frame := r.Mount.Parent()
	if frame == nil {
		return view
	}
	rot := frame.WorldOrientation()
	view.Position = frame.LocalToWorld(r.Chase.Position)
	view.Up = rot.Rotate(r.Chase.Up)
	view.LookAt(frame.LocalToWorld(r.Chase.Focus()))
	return view
}

// Switcher cuts from the world rig to the chase rig once per run and, until
// then, keeps the orbit controller trained on the tracked body.
type Switcher struct {
	TrackAt float64
	ChaseAt float64

	orbit    *Orbit
	rigs     *Rigs
	switches int
	log      zerolog.Logger
}

func NewSwitcher(orbit *Orbit, rigs *Rigs, log zerolog.Logger) *Switcher {
	return &Switcher{
		TrackAt: DefaultTrackAt,
		ChaseAt: DefaultChaseAt,
		orbit:   orbit,
		rigs:    rigs,
		log:     log,
	}
}

func (s *Switcher) Switches() int { return s.switches }

// Evaluate returns the rig active after elapsed. tracked may be nil, in
// which case no tracking or cut happens.
func (s *Switcher) Evaluate(elapsed float64, rig Rig, tracked *physics.Body) Rig {
	if rig != RigWorld || tracked == nil {
		return rig
	}

	if elapsed >= s.ChaseAt && s.Cut(elapsed) {
		return RigChase
	}

	if elapsed >= s.TrackAt {
		s.orbit.Target = tracked.Position
		s.orbit.Update()
	}
	return rig
}

// Cut hands the orbit controller to the chase camera, aimed at the chase
// frame's origin. It reports false when there is no chase camera.
func (s *Switcher) Cut(elapsed float64) bool {
	if !s.rigs.HasChase() {
		return false
	}
	s.orbit.Attach(s.rigs.Chase)
	s.orbit.Target = dynamo.Vec3{}
	s.orbit.Update()
	s.switches++
	s.log.Info().
		Float64("elapsed", elapsed).
		Str("rig", RigChase.String()).
		Msg("camera cut")
	return true
}
