package sh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Quadrature resolution for Project. Midpoint rule on cos(elevation) and
// azimuth is plenty for the smooth amplitude profiles projected here.
const (
	projElevations = 256
	projAzimuths   = 256
)

// Project computes the even-order SH coefficients of an amplitude
// function over the sphere, truncated at lmax. The returned series
// reproduces f exactly only when f is band-limited and antipodally
// symmetric; otherwise it is the least-squares truncation.
func Project(f func(dir r3.Vec) float64, lmax int) []float64 {
	coef := make([]float64, NforL(lmax))
	al := make([]float64, alEntries(lmax))

	dx := 2.0 / projElevations
	daz := 2 * math.Pi / projAzimuths
	dOmega := dx * daz

	for i := 0; i < projElevations; i++ {
		x := -1 + (float64(i)+0.5)*dx
		sinEl := math.Sqrt(1 - x*x)
		alTable(lmax, x, al)

		for j := 0; j < projAzimuths; j++ {
			az := (float64(j) + 0.5) * daz
			dir := r3.Vec{X: sinEl * math.Cos(az), Y: sinEl * math.Sin(az), Z: x}
			w := f(dir) * dOmega

			for l := 0; l <= lmax; l += 2 {
				coef[Index(l, 0)] += w * al[alIndex(l, 0)]
			}
			for m := 1; m <= lmax; m++ {
				c := math.Sqrt2 * math.Cos(float64(m)*az)
				s := math.Sqrt2 * math.Sin(float64(m)*az)
				start := m
				if start%2 != 0 {
					start++
				}
				for l := start; l <= lmax; l += 2 {
					p := w * al[alIndex(l, m)]
					coef[Index(l, m)] += p * c
					coef[Index(l, -m)] += p * s
				}
			}
		}
	}
	return coef
}
