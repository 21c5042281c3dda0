package physics

import "github.com/san-kum/launchsim/internal/dynamo"

const (
	DefaultGravity         = 9.82
	DefaultSleepSpeedLimit = 0.1
	DefaultSleepTimeLimit  = 1.0
)

type BodyType int

const (
	Static BodyType = iota
	Dynamic
)

func (t BodyType) String() string {
	if t == Dynamic {
		return "dynamic"
	}
	return "static"
}

type SleepState int

const (
	Awake SleepState = iota
	Sleepy
	Sleeping
)

type Body struct {
	ID              int
	Name            string
	Type            BodyType
	Mass            float64
	Position        dynamo.Vec3
	Orientation     dynamo.Quat
	Velocity        dynamo.Vec3
	AngularVelocity dynamo.Vec3
	GravityScale    float64
	LinearDamping   float64
	AllowSleep      bool

	sleepState  SleepState
	sleepySince float64
	gravity     dynamo.Vec3
}

// NewBody creates a body at pos. A zero mass yields a static body with
// gravity disabled.
func NewBody(name string, mass float64, pos dynamo.Vec3) *Body {
	b := &Body{
		Name:        name,
		Mass:        mass,
		Position:    pos,
		Orientation: dynamo.QuatIdentity(),
		AllowSleep:  true,
	}
	if mass > 0 {
		b.Type = Dynamic
		b.GravityScale = 1
	}
	return b
}

func (b *Body) StateDim() int   { return 6 }
func (b *Body) ControlDim() int { return 0 }

// Derive returns [velocity, acceleration] for x = [position, velocity].
func (b *Body) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vx, vy, vz := x[3], x[4], x[5]
	g := b.gravity.Scale(b.GravityScale)
	k := b.LinearDamping
	return dynamo.State{
		vx, vy, vz,
		g.X - k*vx, g.Y - k*vy, g.Z - k*vz,
	}
}

// State packs position and velocity for an integrator.
func (b *Body) State() dynamo.State {
	return dynamo.State{
		b.Position.X, b.Position.Y, b.Position.Z,
		b.Velocity.X, b.Velocity.Y, b.Velocity.Z,
	}
}

func (b *Body) setState(x dynamo.State) {
	b.Position = dynamo.Vec3{X: x[0], Y: x[1], Z: x[2]}
	b.Velocity = dynamo.Vec3{X: x[3], Y: x[4], Z: x[5]}
}

// IsDynamic reports whether the world integrates this body.
func (b *Body) IsDynamic() bool {
	return b.Type == Dynamic && b.Mass > 0
}

// Activate switches a static body to dynamic with the given mass and
// gravity enabled.
func (b *Body) Activate(mass float64) {
	b.Mass = mass
	b.Type = Dynamic
	b.GravityScale = 1
	b.WakeUp()
}

// Halt zeroes linear and angular velocity.
func (b *Body) Halt() {
	b.Velocity = dynamo.Vec3{}
	b.AngularVelocity = dynamo.Vec3{}
}

func (b *Body) WakeUp() {
	b.sleepState = Awake
}

func (b *Body) Sleep() {
	b.sleepState = Sleeping
	b.Halt()
}

func (b *Body) SleepState() SleepState { return b.sleepState }

// sleepTick advances the auto-sleep policy after a step at world time t.
func (b *Body) sleepTick(t, speedLimit, timeLimit float64) {
	if !b.AllowSleep || b.sleepState == Sleeping {
		return
	}
	speed := b.Velocity.Length()
	switch {
	case speed >= speedLimit:
		b.sleepState = Awake
	case b.sleepState == Awake:
		b.sleepState = Sleepy
		b.sleepySince = t
	case t-b.sleepySince > timeLimit:
		b.Sleep()
	}
}
