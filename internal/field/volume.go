package field

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Volume is a dense grid of SH coefficient vectors over a 3D region.
// Grid nodes sit at voxel centers; positions are in field-space units
// with node (i, j, k) at (i, j, k) * voxel. Immutable once populated,
// so concurrent sampling needs no locking.
type Volume struct {
	nx, ny, nz int
	ncoef      int
	voxel      float64
	data       []float64
}

// NewVolume allocates an nx*ny*nz grid holding ncoef coefficients per
// node, with the given isotropic voxel size.
func NewVolume(nx, ny, nz, ncoef int, voxel float64) (*Volume, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, fmt.Errorf("field: volume dimensions %dx%dx%d too small, need at least 2 per axis", nx, ny, nz)
	}
	if ncoef < 1 {
		return nil, fmt.Errorf("field: need at least one coefficient per node, got %d", ncoef)
	}
	if voxel <= 0 {
		return nil, fmt.Errorf("field: voxel size must be positive, got %g", voxel)
	}
	return &Volume{
		nx: nx, ny: ny, nz: nz,
		ncoef: ncoef,
		voxel: voxel,
		data:  make([]float64, nx*ny*nz*ncoef),
	}, nil
}

// Dims returns the grid dimensions.
func (v *Volume) Dims() (nx, ny, nz int) { return v.nx, v.ny, v.nz }

// NumCoef returns the number of coefficients per node.
func (v *Volume) NumCoef() int { return v.ncoef }

// VoxelSize returns the node spacing in field-space units.
func (v *Volume) VoxelSize() float64 { return v.voxel }

// Center returns the field-space midpoint of the volume.
func (v *Volume) Center() r3.Vec {
	return r3.Vec{
		X: float64(v.nx-1) / 2 * v.voxel,
		Y: float64(v.ny-1) / 2 * v.voxel,
		Z: float64(v.nz-1) / 2 * v.voxel,
	}
}

// At returns the coefficient vector at node (i, j, k) as a mutable view.
func (v *Volume) At(i, j, k int) []float64 {
	off := ((k*v.ny+j)*v.nx + i) * v.ncoef
	return v.data[off : off+v.ncoef]
}

// Sample trilinearly interpolates the coefficient field at pos into dst
// (length NumCoef). It reports false, leaving dst unspecified, when pos
// falls outside the grid.
func (v *Volume) Sample(pos r3.Vec, dst []float64) bool {
	x := pos.X / v.voxel
	y := pos.Y / v.voxel
	z := pos.Z / v.voxel
	if x < 0 || y < 0 || z < 0 ||
		x > float64(v.nx-1) || y > float64(v.ny-1) || z > float64(v.nz-1) {
		return false
	}

	i, fx := split(x, v.nx)
	j, fy := split(y, v.ny)
	k, fz := split(z, v.nz)

	c000 := v.At(i, j, k)
	c100 := v.At(i+1, j, k)
	c010 := v.At(i, j+1, k)
	c110 := v.At(i+1, j+1, k)
	c001 := v.At(i, j, k+1)
	c101 := v.At(i+1, j, k+1)
	c011 := v.At(i, j+1, k+1)
	c111 := v.At(i+1, j+1, k+1)

	for n := 0; n < v.ncoef; n++ {
		x00 := c000[n] + fx*(c100[n]-c000[n])
		x10 := c010[n] + fx*(c110[n]-c010[n])
		x01 := c001[n] + fx*(c101[n]-c001[n])
		x11 := c011[n] + fx*(c111[n]-c011[n])
		y0 := x00 + fy*(x10-x00)
		y1 := x01 + fy*(x11-x01)
		dst[n] = y0 + fz*(y1-y0)
	}
	return true
}

// split decomposes a grid coordinate into a cell index and fraction,
// clamping the last cell so coordinates on the far face stay in range.
func split(c float64, n int) (int, float64) {
	i := int(c)
	if i > n-2 {
		i = n - 2
	}
	return i, c - float64(i)
}
