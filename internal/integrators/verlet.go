package integrators

import "github.com/san-kum/launchsim/internal/dynamo"

// Verlet is velocity Verlet for [position, velocity] split states. The
// acceleration is re-derived at the new position so forces that depend on
// position (drag-free gravity included) stay second-order accurate.
type Verlet struct {
	mid dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.mid) != n {
		v.mid = make(dynamo.State, n)
	}

	a0 := dyn.Derive(x, u, t)
	next := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		next[i] = x[i] + dt*x[half+i] + 0.5*dt*dt*a0[half+i]
		v.mid[i] = next[i]
		v.mid[half+i] = x[half+i]
	}

	a1 := dyn.Derive(v.mid, u, t+dt)
	for i := 0; i < half; i++ {
		next[half+i] = x[half+i] + 0.5*dt*(a0[half+i]+a1[half+i])
	}
	return next
}

// Leapfrog is the kick-drift-kick form of the same scheme.
type Leapfrog struct {
	mid dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(l.mid) != n {
		l.mid = make(dynamo.State, n)
	}

	a0 := dyn.Derive(x, u, t)
	next := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		kick := x[half+i] + 0.5*dt*a0[half+i]
		next[i] = x[i] + dt*kick
		l.mid[i] = next[i]
		l.mid[half+i] = kick
	}

	a1 := dyn.Derive(l.mid, u, t+dt)
	for i := 0; i < half; i++ {
		next[half+i] = l.mid[half+i] + 0.5*dt*a1[half+i]
	}
	return next
}
