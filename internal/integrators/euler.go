package integrators

import "github.com/san-kum/launchsim/internal/dynamo"

// Euler is the semi-implicit (symplectic) Euler step for [position, velocity]
// split states: velocity is advanced first and the new velocity moves the
// position. States without an even split fall back to explicit Euler.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	n := len(x)
	if n%2 != 0 {
		for i := range x {
			result[i] = x[i] + dt*dx[i]
		}
		return result
	}

	half := n / 2
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dt*dx[half+i]
		result[i] = x[i] + dt*result[half+i]
	}
	return result
}
