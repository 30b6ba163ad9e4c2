package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// envelopeProbes arcs are generated per step to estimate the local
	// maximum of the path probability before rejection sampling.
	envelopeProbes = 100

	// envelopeMargin inflates the estimated maximum; the estimate comes
	// from finitely many probes and may undershoot the true supremum.
	envelopeMargin = 1.5

	// reliableTrials is the rejection budget once a probe round has
	// shown the neighborhood supports the probability threshold.
	reliableTrials = 10000
)

// Tracker grows one streamline by second-order rejection sampling over
// constant-curvature candidate arcs. It owns all per-task mutable state
// and must not be shared across goroutines.
type Tracker struct {
	s     *Shared
	field FieldSampler
	rng   Source

	pos r3.Vec
	dir r3.Vec

	coef      []float64
	positions []r3.Vec
	tangents  []r3.Vec

	prevProbVal float64
	trials      uint64
	steps       uint64
}

// Stats reports per-task sampling diagnostics.
type Stats struct {
	Steps  int
	Trials int
}

// MeanTrialsPerStep returns the average rejection trials consumed per
// accepted step, or 0 before the first accepted step.
func (st Stats) MeanTrialsPerStep() float64 {
	if st.Steps == 0 {
		return 0
	}
	return float64(st.Trials) / float64(st.Steps)
}

// New builds a tracker over the shared configuration, an interpolated
// coefficient field yielding ncoef coefficients per sample, and a
// task-private random source.
func New(s *Shared, field FieldSampler, rng Source, ncoef int) *Tracker {
	return &Tracker{
		s:         s,
		field:     field,
		rng:       rng,
		coef:      make([]float64, ncoef),
		positions: make([]r3.Vec, s.numSamples),
		tangents:  make([]r3.Vec, s.numSamples),
	}
}

// Position returns the current streamline vertex.
func (t *Tracker) Position() r3.Vec { return t.pos }

// Direction returns the current unit tangent.
func (t *Tracker) Direction() r3.Vec { return t.dir }

// Stats returns the diagnostics accumulated so far.
func (t *Tracker) Stats() Stats {
	return Stats{Steps: int(t.steps), Trials: int(t.trials)}
}

// Init seeds the tracker at pos. With a configured seed direction it
// accepts iff the amplitude along it is finite and above the init
// threshold; otherwise it draws up to MaxTrials isotropic directions
// and accepts the first that qualifies. It reports false when no valid
// seed direction is found or the field cannot be sampled at pos.
func (t *Tracker) Init(pos r3.Vec) bool {
	t.pos = pos
	if !t.field.Sample(t.pos, t.coef) {
		return false
	}
	if t.s.hasInitDir {
		return t.accept(t.s.initDir)
	}
	for n := 0; n < t.s.maxTrials; n++ {
		d := r3.Vec{X: t.rng.Normal(), Y: t.rng.Normal(), Z: t.rng.Normal()}
		norm := r3.Norm(d)
		if norm == 0 {
			continue
		}
		if t.accept(r3.Scale(1/norm, d)) {
			return true
		}
	}
	return false
}

// InitAlong seeds the tracker at pos facing dir, bypassing the seed
// search. It is how a driver starts the second leg of a bidirectional
// streamline along the negated seed tangent.
func (t *Tracker) InitAlong(pos, dir r3.Vec) bool {
	t.pos = pos
	if !t.field.Sample(t.pos, t.coef) {
		return false
	}
	norm := r3.Norm(dir)
	if norm == 0 {
		return false
	}
	return t.accept(r3.Scale(1/norm, dir))
}

func (t *Tracker) accept(dir r3.Vec) bool {
	val := t.fod(dir)
	if math.IsNaN(val) || math.IsInf(val, 0) || val <= t.s.initThreshold {
		return false
	}
	t.dir = dir
	t.prevProbVal = math.Pow(val, float64(t.s.numSamples))
	return true
}

// Next advances the streamline by one step. It probes the neighborhood
// to refresh the envelope estimate, then rejection-samples candidate
// arcs against it. It reports false when the local field is too weak to
// continue or no candidate is accepted within the trial budget; the
// streamline terminates there.
func (t *Tracker) Next() bool {
	maxValActual := 0.0
	for n := 0; n < envelopeProbes; n++ {
		val, _, _ := t.randPathProb()
		if val > maxValActual { // NaN probes fail the comparison and drop out
			maxValActual = val
		}
	}
	maxVal := math.Max(t.prevProbVal, maxValActual)
	t.prevProbVal = maxValActual

	if math.IsNaN(maxVal) || maxVal < t.s.probThreshold {
		return false
	}
	maxVal *= envelopeMargin

	nmax := t.s.maxTrials
	if maxValActual > t.s.probThreshold {
		nmax = reliableTrials
	}

	for n := 0; n < nmax; n++ {
		val, nextPos, nextDir := t.randPathProb()
		if val <= t.s.probThreshold {
			continue
		}
		if val > maxVal {
			// The probe round under-estimated the true maximum.
			t.s.logger.Printf("tracking: envelope exceeded (val=%g, max=%g)", val, maxVal)
		}
		if t.rng.Uniform() < val/maxVal {
			t.dir = r3.Scale(1/r3.Norm(nextDir), nextDir)
			t.pos = nextPos
			t.trials += uint64(n)
			t.steps++
			return true
		}
	}
	return false
}

// randPathProb generates one candidate arc and returns its joint
// probability together with the proposed next position and tangent.
// The probability is NaN when any sub-sample is invalid.
func (t *Tracker) randPathProb() (float64, r3.Vec, r3.Vec) {
	t.path()

	prob := 1.0
	for i := 0; i < t.s.numSamples; i++ {
		amp := t.fodAt(t.positions[i], t.tangents[i])
		if math.IsNaN(amp) || amp < t.s.threshold {
			return math.NaN(), r3.Vec{}, r3.Vec{}
		}
		prob *= amp
	}
	last := t.s.numSamples - 1
	return prob, t.positions[last], t.tangents[last]
}

// path fills the scratch buffers with one constant-curvature candidate
// arc from the current state to a random end direction within the angle
// constraint. The arc turns by theta in the plane spanned by the current
// tangent and the curvature vector, with radius stepSize/theta so its
// length is exactly one step.
func (t *Tracker) path() {
	endDir := t.rng.RandomDirection(t.dir, t.s.maxAngle, t.s.sinMaxAngle)
	cosTheta := math.Min(r3.Dot(endDir, t.dir), 1)
	theta := math.Acos(cosTheta)
	n := t.s.numSamples

	if theta > 0 {
		curv := r3.Unit(r3.Sub(endDir, r3.Scale(cosTheta, t.dir)))
		radius := t.s.stepSize / theta

		for i := 0; i < n-1; i++ {
			a := theta * float64(i+1) / float64(n)
			cosA, sinA := math.Cos(a), math.Sin(a)
			t.positions[i] = r3.Add(t.pos, r3.Scale(radius,
				r3.Add(r3.Scale(sinA, t.dir), r3.Scale(1-cosA, curv))))
			t.tangents[i] = r3.Add(r3.Scale(cosA, t.dir), r3.Scale(sinA, curv))
		}
		t.positions[n-1] = r3.Add(t.pos, r3.Scale(radius,
			r3.Add(r3.Scale(math.Sin(theta), t.dir), r3.Scale(1-cosTheta, curv))))
		t.tangents[n-1] = endDir
		return
	}

	// Colinear: sub-points spaced linearly along the current tangent.
	f := t.s.stepSize / float64(n)
	for i := 0; i < n; i++ {
		t.positions[i] = r3.Add(t.pos, r3.Scale(float64(i+1)*f, t.dir))
		t.tangents[i] = t.dir
	}
}

// fod evaluates the amplitude along dir against the coefficients most
// recently sampled into the scratch buffer.
func (t *Tracker) fod(dir r3.Vec) float64 {
	return t.s.eval.Amplitude(t.coef, dir)
}

// fodAt samples the field at pos and evaluates the amplitude along dir.
// A failed sample surfaces as NaN.
func (t *Tracker) fodAt(pos, dir r3.Vec) float64 {
	if !t.field.Sample(pos, t.coef) {
		return math.NaN()
	}
	return t.fod(dir)
}
