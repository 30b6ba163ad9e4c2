package tracking

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// mathSource is the default Source, backed by math/rand with a private
// seed so tasks never contend on a shared generator.
type mathSource struct {
	r *rand.Rand
}

// NewSource returns a task-private random source seeded with seed.
func NewSource(seed int64) Source {
	return &mathSource{r: rand.New(rand.NewSource(seed))}
}

func (s *mathSource) Normal() float64  { return s.r.NormFloat64() }
func (s *mathSource) Uniform() float64 { return s.r.Float64() }

// RandomDirection draws a unit vector uniformly over the spherical cap
// of half-angle maxAngle around base: cos(angle) uniform on
// [cos(maxAngle), 1], azimuth uniform in the tangent plane.
func (s *mathSource) RandomDirection(base r3.Vec, maxAngle, sinMaxAngle float64) r3.Vec {
	if sinMaxAngle == 0 {
		return base
	}
	cosT := 1 - s.r.Float64()*(1-math.Cos(maxAngle))
	sinT := math.Sqrt(1 - cosT*cosT)
	az := 2 * math.Pi * s.r.Float64()

	u, v := orthonormal(base)
	return r3.Add(r3.Scale(cosT, base),
		r3.Add(r3.Scale(sinT*math.Cos(az), u), r3.Scale(sinT*math.Sin(az), v)))
}

// orthonormal returns two unit vectors spanning the plane normal to unit
// vector w, built from the axis least aligned with it.
func orthonormal(w r3.Vec) (u, v r3.Vec) {
	ax, ay, az := math.Abs(w.X), math.Abs(w.Y), math.Abs(w.Z)
	var e r3.Vec
	switch {
	case ax <= ay && ax <= az:
		e = r3.Vec{X: 1}
	case ay <= az:
		e = r3.Vec{Y: 1}
	default:
		e = r3.Vec{Z: 1}
	}
	u = r3.Unit(r3.Cross(w, e))
	v = r3.Cross(w, u)
	return u, v
}
