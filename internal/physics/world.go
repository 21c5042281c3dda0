package physics

import (
	"fmt"

	"github.com/san-kum/launchsim/internal/dynamo"
)

type World struct {
	Gravity         dynamo.Vec3
	AllowSleep      bool
	SleepSpeedLimit float64
	SleepTimeLimit  float64

	integrator dynamo.Integrator
	bodies     []*Body
	nextID     int
	time       float64
	steps      int
}

func NewWorld(gravity dynamo.Vec3, integrator dynamo.Integrator) *World {
	return &World{
		Gravity:         gravity,
		AllowSleep:      true,
		SleepSpeedLimit: DefaultSleepSpeedLimit,
		SleepTimeLimit:  DefaultSleepTimeLimit,
		integrator:      integrator,
		bodies:          make([]*Body, 0),
	}
}

func (w *World) AddBody(b *Body) {
	w.nextID++
	b.ID = w.nextID
	w.bodies = append(w.bodies, b)
}

func (w *World) RemoveBody(b *Body) bool {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return true
		}
	}
	return false
}

// Body looks a body up by name.
func (w *World) Body(name string) (*Body, error) {
	for _, b := range w.bodies {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", dynamo.ErrNoBody, name)
}

func (w *World) Bodies() []*Body { return w.bodies }
func (w *World) Time() float64   { return w.time }
func (w *World) Steps() int      { return w.steps }

// Step advances every awake dynamic body by exactly dt. A body whose
// integrated state is not finite keeps its previous state and the step
// reports ErrInvalidState.
func (w *World) Step(dt float64) error {
	var stepErr error
	for _, b := range w.bodies {
		if !b.IsDynamic() || b.sleepState == Sleeping {
			continue
		}

		b.gravity = w.Gravity
		next := w.integrator.Step(b, b.State(), nil, w.time, dt)
		if !next.IsValid() {
			if stepErr == nil {
				stepErr = fmt.Errorf("body %q at t=%.4f: %w", b.Name, w.time, dynamo.ErrInvalidState)
			}
			continue
		}
		b.setState(next)
		b.Orientation = b.Orientation.Integrate(b.AngularVelocity, dt)
	}

	w.time += dt
	w.steps++

	if w.AllowSleep {
		for _, b := range w.bodies {
			if b.IsDynamic() {
				b.sleepTick(w.time, w.SleepSpeedLimit, w.SleepTimeLimit)
			}
		}
	}
	return stepErr
}
