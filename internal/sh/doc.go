// Package sh evaluates real, even-order spherical harmonic series of the
// kind used to represent fiber orientation distributions: antipodally
// symmetric amplitude functions over the sphere, stored as a flat
// coefficient vector indexed by [Index].
//
// Two evaluators are provided: [Basis] runs the associated Legendre
// recurrence per call, [Precomputed] interpolates a dense elevation table
// built once up front. Both are safe for concurrent use.
package sh
