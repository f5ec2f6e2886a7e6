// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [AdaptiveIntegrator]: error-controlled stepper
//   - [Simulator]: drives a stepper across an output time grid
//   - [Trajectory]: the sampled result of one run
//
// # Example
//
//	model := triad.NewModel(params, schedule)
//	s := dynamo.New(model, integrators.NewRK45(), dynamo.DefaultConfig())
//	result, err := s.Run(ctx, x0, dynamo.Linspace(0, 50, 500))
//
// # Sampling
//
// Adaptive steppers choose their own internal step sizes but never step
// across a requested output time, so every sample in a [Trajectory] sits
// exactly on the grid the caller supplied.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Build one Simulator per
// concurrent run; systems and parameters may be shared when they are
// immutable.
package dynamo
