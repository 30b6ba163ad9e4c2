package sh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNforL(t *testing.T) {
	tests := []struct {
		lmax, n int
	}{
		{0, 1},
		{2, 6},
		{4, 15},
		{6, 28},
		{8, 45},
	}
	for _, tt := range tests {
		if got := NforL(tt.lmax); got != tt.n {
			t.Errorf("NforL(%d) = %d, want %d", tt.lmax, got, tt.n)
		}
		if got := LforN(tt.n); got != tt.lmax {
			t.Errorf("LforN(%d) = %d, want %d", tt.n, got, tt.lmax)
		}
	}
}

func TestConstantSeries(t *testing.T) {
	// A series with only the l=0 term is constant over the sphere.
	coef := make([]float64, NforL(4))
	coef[0] = 1 / p00

	b := NewBasis(4)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		dir := randomUnit(rng)
		if got := b.Amplitude(coef, dir); math.Abs(got-1) > 1e-12 {
			t.Fatalf("amplitude at %v = %g, want 1", dir, got)
		}
	}
}

func TestAntipodalSymmetry(t *testing.T) {
	const lmax = 8
	rng := rand.New(rand.NewSource(2))
	coef := randomSeries(rng, lmax)

	for i := 0; i < 100; i++ {
		dir := randomUnit(rng)
		neg := r3.Scale(-1, dir)
		a := Value(coef, dir, lmax)
		b := Value(coef, neg, lmax)
		if math.Abs(a-b) > 1e-10*math.Max(1, math.Abs(a)) {
			t.Fatalf("amplitude not antipodally symmetric: %g vs %g at %v", a, b, dir)
		}
	}
}

func TestPrecomputedMatchesDirect(t *testing.T) {
	g := gomega.NewWithT(t)

	const lmax = 8
	rng := rand.New(rand.NewSource(3))
	coef := randomSeries(rng, lmax)

	direct := NewBasis(lmax)
	table := NewPrecomputed(lmax)

	for i := 0; i < 500; i++ {
		dir := randomUnit(rng)
		want := direct.Amplitude(coef, dir)
		got := table.Amplitude(coef, dir)
		g.Expect(got).To(gomega.BeNumerically("~", want, 1e-4),
			"direction %v", dir)
	}
}

func TestPlm0MatchesTable(t *testing.T) {
	const lmax = 8
	var m0 [lmax/2 + 1]float64
	al := make([]float64, alEntries(lmax))
	for _, x := range []float64{-0.9, -0.3, 0, 0.4, 0.99, 1} {
		Plm0(lmax, x, m0[:])
		alTable(lmax, x, al)
		for l := 0; l <= lmax; l += 2 {
			if math.Abs(m0[l/2]-al[alIndex(l, 0)]) > 1e-12 {
				t.Errorf("Plm0 disagrees with alTable at l=%d, x=%g: %g vs %g",
					l, x, m0[l/2], al[alIndex(l, 0)])
			}
		}
	}
}

func TestProjectRecoversBandLimited(t *testing.T) {
	g := gomega.NewWithT(t)

	const lmax = 4
	rng := rand.New(rand.NewSource(4))
	want := randomSeries(rng, lmax)

	got := Project(func(dir r3.Vec) float64 {
		return Value(want, dir, lmax)
	}, lmax)

	for i := range want {
		g.Expect(got[i]).To(gomega.BeNumerically("~", want[i], 1e-3),
			"coefficient %d", i)
	}
}

func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if n := r3.Norm(v); n > 1e-6 {
			return r3.Scale(1/n, v)
		}
	}
}

func randomSeries(rng *rand.Rand, lmax int) []float64 {
	coef := make([]float64, NforL(lmax))
	for i := range coef {
		coef[i] = rng.NormFloat64()
	}
	return coef
}
