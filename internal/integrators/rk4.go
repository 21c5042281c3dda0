package integrators

import "github.com/san-kum/launchsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta step. Stage buffers are
// reused between calls; an RK4 value must not be shared across worlds.
type RK4 struct {
	stages [4]dynamo.State
	probe  dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.probe) == n {
		return
	}
	for i := range r.stages {
		r.stages[i] = make(dynamo.State, n)
	}
	r.probe = make(dynamo.State, n)
}

// offset fills r.probe with x + h*k.
func (r *RK4) offset(x, k dynamo.State, h float64) dynamo.State {
	for i := range x {
		r.probe[i] = x[i] + h*k[i]
	}
	return r.probe
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	k := &r.stages

	copy(k[0], dyn.Derive(x, u, t))
	copy(k[1], dyn.Derive(r.offset(x, k[0], dt/2), u, t+dt/2))
	copy(k[2], dyn.Derive(r.offset(x, k[1], dt/2), u, t+dt/2))
	copy(k[3], dyn.Derive(r.offset(x, k[2], dt), u, t+dt))

	next := make(dynamo.State, len(x))
	w := dt / 6
	for i := range x {
		next[i] = x[i] + w*(k[0][i]+2*k[1][i]+2*k[2][i]+k[3][i])
	}
	return next
}
