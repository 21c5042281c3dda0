// Package physics provides a small rigid-body world for the launch simulation.
//
// Each [Body] implements [dynamo.System] for its translational state, so the
// world can advance it with any [dynamo.Integrator]:
//
//   - [World]: owns bodies, gravity and the sleep policy
//   - [Body]: mass, pose, velocity, gravity scale and static/dynamic type
//
// # Sleeping
//
// Dynamic bodies that stay below the sleep speed limit for longer than the
// sleep time limit are put to sleep and skipped by [World.Step]. Writing a
// velocity does not wake a body; callers that drive velocity externally must
// call [Body.WakeUp] every tick.
//
//	w := physics.NewWorld(dynamo.Vec3{Y: -9.82}, integrators.NewRK4())
//	rocket := physics.NewBody("rocket", 0, dynamo.Vec3{Y: 2})
//	w.AddBody(rocket)
//	_ = w.Step(1.0 / 60)
package physics
