package metrics

import (
	"math"

	"github.com/san-kum/fibertrack/internal/runner"
	"github.com/san-kum/fibertrack/internal/tracking"
	"gonum.org/v1/gonum/spatial/r3"
)

// Curvature reduces to the mean turning angle between consecutive
// segments, in radians. Values near the configured max angle suggest
// the angle constraint, not the field, is shaping the tracks.
type Curvature struct {
	sum     float64
	samples int
}

func NewCurvature() *Curvature { return &Curvature{} }

func (c *Curvature) Name() string { return "mean_turn_angle" }

func (c *Curvature) Observe(s runner.Streamline, _ tracking.Stats) {
	for i := 2; i < len(s); i++ {
		a := r3.Sub(s[i-1], s[i-2])
		b := r3.Sub(s[i], s[i-1])
		na, nb := r3.Norm(a), r3.Norm(b)
		if na == 0 || nb == 0 {
			continue
		}
		cos := r3.Dot(a, b) / (na * nb)
		c.sum += math.Acos(math.Max(-1, math.Min(1, cos)))
		c.samples++
	}
}

func (c *Curvature) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Curvature) Reset() {
	c.sum = 0
	c.samples = 0
}
