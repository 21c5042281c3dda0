// Package sequence runs the staged launch: once per tick it advances the
// launch timeline, applies the resulting effects to the rocket body and the
// scene, steps physics, syncs renderables and evaluates the camera rig.
//
// The tick order is fixed:
//
//	elapsed -> timeline -> effects -> physics step -> transform sync -> camera rig -> frame
//
// Rendering is left to the caller, which reads the Frame returned by Tick
// (or registered observers) together with the scene graph and the active
// camera.
package sequence
