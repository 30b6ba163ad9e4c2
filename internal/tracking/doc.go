// Package tracking implements the probabilistic step sampler used to
// grow streamlines through a fiber orientation distribution field.
//
// The package defines the capability interfaces the sampler is built on:
//
//   - [FieldSampler]: interpolated SH coefficients at a spatial position
//   - [Evaluator]: amplitude of a coefficient vector along a direction
//   - [Source]: randomness, including cone-constrained direction draws
//
// One [Shared] carries the tracking parameters and the SH evaluator; it
// is immutable after construction and read concurrently by every task.
// One [Tracker] per streamline owns the mutable state (position, tangent,
// adaptive envelope estimate) and exposes Init/Next stepping.
//
// # Thread Safety
//
// Tracker instances are NOT thread-safe and must never be shared across
// goroutines. For parallel tracking use the runner package, which gives
// each task its own Tracker and Source.
package tracking
