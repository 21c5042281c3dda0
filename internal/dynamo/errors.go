package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrFrozen indicates the launch sequence reached its terminal state.
	ErrFrozen = errors.New("dynamo: launch sequence frozen")

	// ErrDegenerateRay indicates a zoom ray that cannot be intersected.
	ErrDegenerateRay = errors.New("dynamo: degenerate zoom ray")

	// ErrNoBody indicates a lookup for a body that was never registered.
	ErrNoBody = errors.New("dynamo: no such body")

	// ErrUnknownIntegrator indicates an integrator name with no registered stepper.
	ErrUnknownIntegrator = errors.New("dynamo: unknown integrator")

	// ErrContextCanceled indicates the tick loop was interrupted.
	ErrContextCanceled = errors.New("dynamo: loop canceled by context")
)
