package tracking

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"
)

// fixedDirSource returns a predetermined end direction from every
// RandomDirection call.
func fixedDirSource(end r3.Vec) *scriptedSource {
	return &scriptedSource{
		normals:  []float64{1},
		uniforms: []float64{0},
		dir:      func(r3.Vec, float64, float64) r3.Vec { return end },
	}
}

// endDirAtAngle returns a unit vector at angle theta from +Z, tilted
// toward +X.
func endDirAtAngle(theta float64) r3.Vec {
	return r3.Vec{X: math.Sin(theta), Z: math.Cos(theta)}
}

func arcTracker(t *testing.T, numSamples int, end r3.Vec) *Tracker {
	t.Helper()
	p := testParams()
	p.NumSamples = numSamples
	p.MaxAngle = math.Pi / 2
	s := mustShared(t, p, constEval(0.5))
	tr := New(s, constField{}, fixedDirSource(end), 1)
	tr.pos = r3.Vec{X: 1, Y: 2, Z: 3}
	tr.dir = r3.Vec{Z: 1}
	return tr
}

func polylineLength(start r3.Vec, pts []r3.Vec) float64 {
	sum := 0.0
	prev := start
	for _, p := range pts {
		sum += r3.Norm(r3.Sub(p, prev))
		prev = p
	}
	return sum
}

func TestArcLengthConservation(t *testing.T) {
	for _, theta := range []float64{0.1, 0.5, 1.0, 1.5} {
		for _, n := range []int{2, 4, 8} {
			tr := arcTracker(t, n, endDirAtAngle(theta))
			tr.path()

			got := polylineLength(tr.pos, tr.positions)
			// The polyline is the chord approximation of the arc; its
			// length is stepSize * sinc(theta/2n).
			h := theta / (2 * float64(n))
			want := tr.s.stepSize * math.Sin(h) / h
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("theta=%g n=%d: polyline length %g, want %g", theta, n, got, want)
			}
			if math.Abs(got-tr.s.stepSize) > tr.s.stepSize*h*h/6*1.01 {
				t.Errorf("theta=%g n=%d: polyline length %g strays from the arc length %g", theta, n, got, tr.s.stepSize)
			}
		}
	}
}

func TestStraightPathExactSpacing(t *testing.T) {
	tr := arcTracker(t, 4, r3.Vec{Z: 1})
	tr.path()

	if got := polylineLength(tr.pos, tr.positions); got != tr.s.stepSize {
		t.Errorf("straight polyline length = %g, want exactly %g", got, tr.s.stepSize)
	}
	for i, tan := range tr.tangents {
		if tan != tr.dir {
			t.Errorf("straight tangent %d = %v, want %v", i, tan, tr.dir)
		}
	}
}

func TestArcEndpointMatchesEndDirection(t *testing.T) {
	end := endDirAtAngle(0.8)
	tr := arcTracker(t, 4, end)
	tr.path()

	last := len(tr.tangents) - 1
	if diff := cmp.Diff(end, tr.tangents[last], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("final tangent mismatch (-want +got):\n%s", diff)
	}

	// The endpoint must sit on the circle of radius stepSize/theta in
	// the dir/curv plane.
	theta := 0.8
	radius := tr.s.stepSize / theta
	want := r3.Add(tr.pos, r3.Vec{
		X: radius * (1 - math.Cos(theta)),
		Z: radius * math.Sin(theta),
	})
	if diff := cmp.Diff(want, tr.positions[last], cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("final position mismatch (-want +got):\n%s", diff)
	}
}

func TestArcTangentsUnitLength(t *testing.T) {
	tr := arcTracker(t, 8, endDirAtAngle(1.2))
	tr.path()
	for i, tan := range tr.tangents {
		if n := r3.Norm(tan); math.Abs(n-1) > 1e-12 {
			t.Errorf("tangent %d has norm %g", i, n)
		}
	}
}

func TestArcTangentsFollowPositions(t *testing.T) {
	// Each tangent should approximate the direction of travel through
	// its sub-point.
	tr := arcTracker(t, 8, endDirAtAngle(1.0))
	tr.path()

	prev := tr.pos
	for i, p := range tr.positions {
		seg := r3.Unit(r3.Sub(p, prev))
		if d := r3.Dot(seg, tr.tangents[i]); d < math.Cos(0.2) {
			t.Errorf("tangent %d misaligned with travel, dot = %g", i, d)
		}
		prev = p
	}
}

func TestInvalidSubSampleInvalidatesArc(t *testing.T) {
	// The third sub-point falls below threshold, so the whole candidate
	// is rejected as NaN.
	calls := 0
	eval := funcEval{f: func([]float64, r3.Vec) float64 {
		calls++
		if calls == 3 {
			return 0.01
		}
		return 0.9
	}}
	p := testParams()
	p.NumSamples = 4
	s := mustShared(t, p, eval)
	tr := New(s, constField{}, fixedDirSource(endDirAtAngle(0.3)), 1)
	tr.pos = r3.Vec{}
	tr.dir = r3.Vec{Z: 1}

	val, _, _ := tr.randPathProb()
	if !math.IsNaN(val) {
		t.Errorf("joint probability = %g, want NaN for an invalid sub-sample", val)
	}
}

func TestOutOfBoundsSubSampleInvalidatesArc(t *testing.T) {
	// Sampling fails past z = 0.3, partway along the arc.
	fld := funcField{f: func(pos r3.Vec, _ []float64) bool { return pos.Z <= 0.3 }}
	p := testParams()
	p.NumSamples = 4
	s := mustShared(t, p, constEval(0.9))
	tr := New(s, fld, fixedDirSource(r3.Vec{Z: 1}), 1)
	tr.pos = r3.Vec{}
	tr.dir = r3.Vec{Z: 1}

	val, _, _ := tr.randPathProb()
	if !math.IsNaN(val) {
		t.Errorf("joint probability = %g, want NaN outside the field", val)
	}
}
