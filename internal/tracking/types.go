package tracking

import "gonum.org/v1/gonum/spatial/r3"

// FieldSampler provides the SH coefficients of the orientation field at
// an arbitrary position, typically by interpolating a voxel grid. It
// reports false when the position lies outside the valid field; callers
// treat that as a NaN amplitude.
type FieldSampler interface {
	Sample(pos r3.Vec, dst []float64) bool
}

// Evaluator turns sampled coefficients and a unit direction into a field
// amplitude. Implementations must be safe for unsynchronized concurrent
// use; one evaluator is shared by all tracking tasks.
type Evaluator interface {
	Amplitude(coef []float64, dir r3.Vec) float64
}

// Source supplies the randomness consumed by one tracking task.
// RandomDirection draws a unit vector uniformly over the spherical cap
// of half-angle maxAngle around base; sinMaxAngle is carried alongside
// so implementations can avoid recomputing it per draw.
type Source interface {
	Normal() float64
	Uniform() float64
	RandomDirection(base r3.Vec, maxAngle, sinMaxAngle float64) r3.Vec
}
