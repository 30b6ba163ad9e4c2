package field

import (
	"fmt"
	"math"

	"github.com/san-kum/fibertrack/internal/sh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Constant builds a volume whose amplitude is amp along every direction
// at every node.
func Constant(nx, ny, nz int, voxel, amp float64) (*Volume, error) {
	coef := sh.Project(func(r3.Vec) float64 { return amp }, 0)
	return uniform(nx, ny, nz, voxel, coef)
}

// Fiber builds a spatially uniform volume representing a single fiber
// population along axis: an antipodal lobe exp(-kappa*sin^2) projected
// onto SH at order lmax and scaled so the on-axis amplitude equals peak.
func Fiber(nx, ny, nz int, voxel float64, lmax int, axis r3.Vec, kappa, peak float64) (*Volume, error) {
	n := r3.Norm(axis)
	if n == 0 {
		return nil, fmt.Errorf("field: fiber axis must be non-zero")
	}
	u := r3.Scale(1/n, axis)

	coef := sh.Project(lobe(u, kappa), lmax)
	rescale(coef, peak/sh.Value(coef, u, lmax))
	return uniform(nx, ny, nz, voxel, coef)
}

// Crossing builds a spatially uniform two-population volume, the sum of
// one lobe along each axis, scaled so the larger on-axis amplitude
// equals peak.
func Crossing(nx, ny, nz int, voxel float64, lmax int, axis1, axis2 r3.Vec, kappa, peak float64) (*Volume, error) {
	n1, n2 := r3.Norm(axis1), r3.Norm(axis2)
	if n1 == 0 || n2 == 0 {
		return nil, fmt.Errorf("field: crossing axes must be non-zero")
	}
	u1 := r3.Scale(1/n1, axis1)
	u2 := r3.Scale(1/n2, axis2)

	l1, l2 := lobe(u1, kappa), lobe(u2, kappa)
	coef := sh.Project(func(dir r3.Vec) float64 { return l1(dir) + l2(dir) }, lmax)
	top := math.Max(sh.Value(coef, u1, lmax), sh.Value(coef, u2, lmax))
	rescale(coef, peak/top)
	return uniform(nx, ny, nz, voxel, coef)
}

func lobe(axis r3.Vec, kappa float64) func(r3.Vec) float64 {
	return func(dir r3.Vec) float64 {
		c := r3.Dot(dir, axis)
		return math.Exp(-kappa * (1 - c*c))
	}
}

func rescale(coef []float64, s float64) {
	for i := range coef {
		coef[i] *= s
	}
}

func uniform(nx, ny, nz int, voxel float64, coef []float64) (*Volume, error) {
	v, err := NewVolume(nx, ny, nz, len(coef), voxel)
	if err != nil {
		return nil, err
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				copy(v.At(i, j, k), coef)
			}
		}
	}
	return v, nil
}
