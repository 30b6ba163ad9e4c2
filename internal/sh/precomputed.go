package sh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const defaultRows = 1024

// Precomputed evaluates SH amplitudes through a dense associated-Legendre
// table, trading memory for the per-sample recurrence. The table is built
// once and is safe for unsynchronized concurrent reads.
type Precomputed struct {
	lmax  int
	rows  int
	table []float64
}

// NewPrecomputed builds the lookup table for the given order.
func NewPrecomputed(lmax int) *Precomputed {
	return NewPrecomputedRows(lmax, defaultRows)
}

func NewPrecomputedRows(lmax, rows int) *Precomputed {
	n := alEntries(lmax)
	p := &Precomputed{
		lmax:  lmax,
		rows:  rows,
		table: make([]float64, (rows+1)*n),
	}
	for i := 0; i <= rows; i++ {
		x := float64(i) / float64(rows)
		alTable(lmax, x, p.table[i*n:(i+1)*n])
	}
	return p
}

// Amplitude evaluates the series coef along unit direction dir, linearly
// interpolating the Legendre table over elevation. The series is
// antipodally symmetric, so directions in the lower hemisphere are
// evaluated through their antipode.
func (p *Precomputed) Amplitude(coef []float64, dir r3.Vec) float64 {
	if dir.Z < 0 {
		dir = r3.Vec{X: -dir.X, Y: -dir.Y, Z: -dir.Z}
	}
	z := dir.Z
	if z > 1 {
		z = 1
	}
	f := z * float64(p.rows)
	i := int(f)
	if i >= p.rows {
		i = p.rows - 1
	}
	frac := f - float64(i)

	n := alEntries(p.lmax)
	lo := p.table[i*n : (i+1)*n]
	hi := p.table[(i+1)*n : (i+2)*n]
	return sumInterp(coef, dir, p.lmax, lo, hi, frac)
}

// Lmax returns the order the table was built for.
func (p *Precomputed) Lmax() int { return p.lmax }
