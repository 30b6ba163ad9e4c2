package sh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NforL returns the number of coefficients in a real, even-order,
// antipodally symmetric SH series truncated at order lmax.
func NforL(lmax int) int {
	return (lmax + 1) * (lmax + 2) / 2
}

// LforN returns the highest even order representable with n coefficients.
func LforN(n int) int {
	l := 0
	for NforL(l+2) <= n {
		l += 2
	}
	return l
}

// Index returns the position of the (l, m) coefficient within a series,
// with -l <= m <= l and l even.
func Index(l, m int) int {
	return l*(l+1)/2 + m
}

const p00 = 0.28209479177387814 // 1 / sqrt(4*pi)

// Plm0 fills dst[k] with the spherical-normalized associated Legendre
// value of order 2k and degree 0 at x, for 2k <= lmax.
func Plm0(lmax int, x float64, dst []float64) {
	dst[0] = p00
	if lmax == 0 {
		return
	}
	prev := p00                   // order 0
	cur := x * math.Sqrt(3) * p00 // order 1
	for l := 2; l <= lmax; l++ {
		fl := float64(l)
		a := math.Sqrt((4*fl*fl - 1) / (fl * fl))
		b := (fl - 1) / math.Sqrt(4*(fl-1)*(fl-1)-1)
		prev, cur = cur, a*(x*cur-b*prev)
		if l%2 == 0 {
			dst[l/2] = cur
		}
	}
}

// alEntries returns the number of m >= 0 associated Legendre values needed
// for an even series of order lmax.
func alEntries(lmax int) int {
	n := lmax/2 + 1
	return n * n
}

// alIndex returns the position of the (l, m) value, l even, 0 <= m <= l,
// within a row produced by alTable.
func alIndex(l, m int) int {
	return (l/2)*(l/2) + m
}

// alTable fills dst (length alEntries(lmax)) with spherical-normalized
// associated Legendre values at x for all even l <= lmax and 0 <= m <= l.
func alTable(lmax int, x float64, dst []float64) {
	sinEl := math.Sqrt(1 - x*x)
	pmm := p00
	for m := 0; m <= lmax; m++ {
		if m > 0 {
			pmm *= -sinEl * math.Sqrt((2*float64(m)+1)/(2*float64(m)))
		}
		if m%2 == 0 {
			dst[alIndex(m, m)] = pmm
		}
		if m == lmax {
			break
		}
		prev := pmm
		cur := x * math.Sqrt(2*float64(m)+3) * pmm
		if (m+1)%2 == 0 {
			dst[alIndex(m+1, m)] = cur
		}
		for l := m + 2; l <= lmax; l++ {
			fl, fm := float64(l), float64(m)
			a := math.Sqrt((4*fl*fl - 1) / (fl*fl - fm*fm))
			b := math.Sqrt(((fl-1)*(fl-1) - fm*fm) / (4*(fl-1)*(fl-1) - 1))
			prev, cur = cur, a*(x*cur-b*prev)
			if l%2 == 0 {
				dst[alIndex(l, m)] = cur
			}
		}
	}
}

// Value evaluates the SH series coef along unit direction dir at order
// lmax. Only even-order terms contribute, making the series antipodally
// symmetric. The recurrence runs in place; nothing is allocated.
func Value(coef []float64, dir r3.Vec, lmax int) float64 {
	x := dir.Z
	sinEl := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y)
	az := math.Atan2(dir.Y, dir.X)

	amp := 0.0
	pmm := p00
	for m := 0; m <= lmax; m++ {
		if m > 0 {
			pmm *= -sinEl * math.Sqrt((2*float64(m)+1)/(2*float64(m)))
		}
		var c, s float64
		if m > 0 {
			c = math.Sqrt2 * math.Cos(float64(m)*az)
			s = math.Sqrt2 * math.Sin(float64(m)*az)
		}
		if m%2 == 0 {
			amp += contrib(coef, m, m, pmm, c, s)
		}
		if m == lmax {
			break
		}
		prev := pmm
		cur := x * math.Sqrt(2*float64(m)+3) * pmm
		if (m+1)%2 == 0 {
			amp += contrib(coef, m+1, m, cur, c, s)
		}
		for l := m + 2; l <= lmax; l++ {
			fl, fm := float64(l), float64(m)
			a := math.Sqrt((4*fl*fl - 1) / (fl*fl - fm*fm))
			b := math.Sqrt(((fl-1)*(fl-1) - fm*fm) / (4*(fl-1)*(fl-1) - 1))
			prev, cur = cur, a*(x*cur-b*prev)
			if l%2 == 0 {
				amp += contrib(coef, l, m, cur, c, s)
			}
		}
	}
	return amp
}

// contrib is the term of one (l, m) basis function given its Legendre
// value p; c and s carry the sqrt(2)-scaled azimuth factors for m > 0.
func contrib(coef []float64, l, m int, p, c, s float64) float64 {
	if m == 0 {
		return coef[Index(l, 0)] * p
	}
	return p * (coef[Index(l, m)]*c + coef[Index(l, -m)]*s)
}

// sumInterp evaluates a series against two adjacent table rows of
// associated Legendre values, linearly interpolated by frac.
func sumInterp(coef []float64, dir r3.Vec, lmax int, lo, hi []float64, frac float64) float64 {
	amp := 0.0
	for l := 0; l <= lmax; l += 2 {
		k := alIndex(l, 0)
		amp += coef[Index(l, 0)] * (lo[k] + frac*(hi[k]-lo[k]))
	}
	if lmax == 0 {
		return amp
	}
	az := math.Atan2(dir.Y, dir.X)
	for m := 1; m <= lmax; m++ {
		c := math.Sqrt2 * math.Cos(float64(m)*az)
		s := math.Sqrt2 * math.Sin(float64(m)*az)
		start := m
		if start%2 != 0 {
			start++
		}
		for l := start; l <= lmax; l += 2 {
			k := alIndex(l, m)
			p := lo[k] + frac*(hi[k]-lo[k])
			amp += p * (coef[Index(l, m)]*c + coef[Index(l, -m)]*s)
		}
	}
	return amp
}

// Basis evaluates SH amplitudes directly, without a lookup table.
type Basis struct {
	lmax int
}

func NewBasis(lmax int) *Basis {
	return &Basis{lmax: lmax}
}

func (b *Basis) Amplitude(coef []float64, dir r3.Vec) float64 {
	return Value(coef, dir, b.lmax)
}
