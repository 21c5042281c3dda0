// Package dynamo provides the core primitives shared by the launch simulation.
//
// The package defines the math and integration building blocks the rest of
// the module is assembled from:
//
//   - [Vec3] and [Quat]: value-type vectors and rotations
//   - [State]: flat state vector integrated by an [Integrator]
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//
// # Example
//
//	body := physics.NewBody("rocket", 1.0, dynamo.Vec3{Y: 2})
//	integ := integrators.NewRK4()
//	x := integ.Step(body, body.State(), nil, 0, 1.0/60)
//
// # Thread Safety
//
// Nothing in this package holds mutable shared state; the vector types are
// plain values and are safe to copy between goroutines.
package dynamo
