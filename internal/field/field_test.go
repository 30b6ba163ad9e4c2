package field

import (
	"math"
	"testing"

	"github.com/san-kum/fibertrack/internal/sh"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVolumeValidation(t *testing.T) {
	tests := []struct {
		name              string
		nx, ny, nz, ncoef int
		voxel             float64
	}{
		{"tiny grid", 1, 4, 4, 6, 1.0},
		{"no coefficients", 4, 4, 4, 0, 1.0},
		{"zero voxel", 4, 4, 4, 6, 0},
		{"negative voxel", 4, 4, 4, 6, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewVolume(tt.nx, tt.ny, tt.nz, tt.ncoef, tt.voxel); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// A coefficient field linear in position is reproduced exactly by
// trilinear interpolation.
func TestSampleLinearField(t *testing.T) {
	v, err := NewVolume(4, 5, 6, 2, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	nx, ny, nz := v.Dims()
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := v.At(i, j, k)
				c[0] = float64(i) + 2*float64(j) - float64(k)
				c[1] = 7
			}
		}
	}

	dst := make([]float64, 2)
	probes := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1.0, Y: 2.5, Z: 3.0},
		{X: 5.99, Y: 7.99, Z: 9.99},
		{X: 6, Y: 8, Z: 10}, // far face, exactly in range
	}
	for _, p := range probes {
		if !v.Sample(p, dst) {
			t.Fatalf("Sample(%v) reported out of bounds", p)
		}
		want := p.X/2 + 2*(p.Y/2) - p.Z/2
		if math.Abs(dst[0]-want) > 1e-12 {
			t.Errorf("Sample(%v)[0] = %g, want %g", p, dst[0], want)
		}
		if dst[1] != 7 {
			t.Errorf("Sample(%v)[1] = %g, want 7", p, dst[1])
		}
	}
}

func TestSampleOutOfBounds(t *testing.T) {
	v, err := NewVolume(4, 4, 4, 1, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]float64, 1)
	for _, p := range []r3.Vec{
		{X: -0.1, Y: 1, Z: 1},
		{X: 1, Y: 3.01, Z: 1},
		{X: 1, Y: 1, Z: -5},
		{X: 100, Y: 100, Z: 100},
	} {
		if v.Sample(p, dst) {
			t.Errorf("Sample(%v) should be out of bounds", p)
		}
	}
}

func TestFiberPrefersAxis(t *testing.T) {
	const lmax = 8
	v, err := Fiber(4, 4, 4, 1.0, lmax, r3.Vec{Z: 1}, 6, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	coef := make([]float64, v.NumCoef())
	if !v.Sample(v.Center(), coef) {
		t.Fatal("center out of bounds")
	}

	onAxis := sh.Value(coef, r3.Vec{Z: 1}, lmax)
	equator := sh.Value(coef, r3.Vec{X: 1}, lmax)

	if math.Abs(onAxis-1.0) > 0.05 {
		t.Errorf("on-axis amplitude = %g, want ~1", onAxis)
	}
	if equator > onAxis/3 {
		t.Errorf("equatorial amplitude %g not well below on-axis %g", equator, onAxis)
	}
}

func TestCrossingHasTwoLobes(t *testing.T) {
	const lmax = 8
	a1 := r3.Vec{X: 1}
	a2 := r3.Vec{Y: 1}
	v, err := Crossing(4, 4, 4, 1.0, lmax, a1, a2, 8, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	coef := make([]float64, v.NumCoef())
	if !v.Sample(v.Center(), coef) {
		t.Fatal("center out of bounds")
	}

	p1 := sh.Value(coef, a1, lmax)
	p2 := sh.Value(coef, a2, lmax)
	diag := r3.Scale(1/math.Sqrt2, r3.Vec{X: 1, Y: 1})
	between := sh.Value(coef, diag, lmax)

	if math.Abs(p1-p2) > 0.05 {
		t.Errorf("lobes should be symmetric: %g vs %g", p1, p2)
	}
	if between > p1/2 {
		t.Errorf("amplitude between lobes (%g) should dip below the peaks (%g)", between, p1)
	}
}
