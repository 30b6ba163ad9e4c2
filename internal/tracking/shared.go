package tracking

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Params collects the tracking parameters a Shared is built from.
type Params struct {
	// StepSize is the arc length advanced per accepted step, in
	// field-space units.
	StepSize float64

	// MaxAngle is the half-angle, in radians, of the cone a candidate
	// end direction may deviate from the current tangent.
	MaxAngle float64

	// Threshold is the minimum per-sample amplitude for a sub-sample
	// to be considered valid.
	Threshold float64

	// InitThreshold is the minimum amplitude required to accept a seed
	// direction. Zero defaults to 2*Threshold.
	InitThreshold float64

	// NumSamples is the number of sub-points evaluated per candidate
	// arc; it sets the order of the path-probability approximation.
	NumSamples int

	// MaxTrials bounds the seed-direction search and the rejection
	// loop in rounds where the envelope estimate looks unreliable.
	MaxTrials int

	// Lmax is the SH order of the field coefficients.
	Lmax int

	// InitDir, when non-nil, fixes the seed direction instead of
	// searching isotropically.
	InitDir *r3.Vec

	// Logger receives envelope-violation diagnostics. Nil uses the
	// process default logger.
	Logger *log.Logger
}

// Shared is the immutable per-run tracking configuration, referenced
// read-only by every concurrent tracking task.
type Shared struct {
	stepSize      float64
	maxAngle      float64
	sinMaxAngle   float64
	threshold     float64
	initThreshold float64
	probThreshold float64
	numSamples    int
	maxTrials     int
	lmax          int
	eval          Evaluator
	initDir       r3.Vec
	hasInitDir    bool
	logger        *log.Logger
}

// NewShared validates p and binds it to the SH evaluator all tasks will
// share. Malformed parameters are rejected here, never during stepping.
func NewShared(p Params, eval Evaluator) (*Shared, error) {
	if eval == nil {
		return nil, fmt.Errorf("tracking: evaluator must not be nil")
	}
	if p.StepSize <= 0 {
		return nil, fmt.Errorf("tracking: step size must be positive, got %g", p.StepSize)
	}
	if p.MaxAngle < 0 || p.MaxAngle > math.Pi {
		return nil, fmt.Errorf("tracking: max angle must be in [0, pi], got %g", p.MaxAngle)
	}
	if p.Threshold <= 0 || p.Threshold > 1 {
		return nil, fmt.Errorf("tracking: threshold must be in (0, 1], got %g", p.Threshold)
	}
	if p.NumSamples < 1 {
		return nil, fmt.Errorf("tracking: need at least one sample per step, got %d", p.NumSamples)
	}
	if p.MaxTrials < 1 {
		return nil, fmt.Errorf("tracking: max trials must be positive, got %d", p.MaxTrials)
	}
	if p.Lmax < 0 || p.Lmax%2 != 0 {
		return nil, fmt.Errorf("tracking: lmax must be even and non-negative, got %d", p.Lmax)
	}

	initThreshold := p.InitThreshold
	if initThreshold == 0 {
		initThreshold = 2 * p.Threshold
	}
	if initThreshold < 0 {
		return nil, fmt.Errorf("tracking: init threshold must be positive, got %g", p.InitThreshold)
	}

	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Shared{
		stepSize:      p.StepSize,
		maxAngle:      p.MaxAngle,
		sinMaxAngle:   math.Sin(p.MaxAngle),
		threshold:     p.Threshold,
		initThreshold: initThreshold,
		probThreshold: math.Pow(p.Threshold, float64(p.NumSamples)),
		numSamples:    p.NumSamples,
		maxTrials:     p.MaxTrials,
		lmax:          p.Lmax,
		eval:          eval,
		logger:        logger,
	}
	if p.InitDir != nil {
		n := r3.Norm(*p.InitDir)
		if n == 0 {
			return nil, fmt.Errorf("tracking: init direction must be non-zero")
		}
		s.initDir = r3.Scale(1/n, *p.InitDir)
		s.hasInitDir = true
	}
	return s, nil
}

func (s *Shared) StepSize() float64      { return s.stepSize }
func (s *Shared) MaxAngle() float64      { return s.maxAngle }
func (s *Shared) Threshold() float64     { return s.threshold }
func (s *Shared) InitThreshold() float64 { return s.initThreshold }
func (s *Shared) ProbThreshold() float64 { return s.probThreshold }
func (s *Shared) NumSamples() int        { return s.numSamples }
func (s *Shared) MaxTrials() int         { return s.maxTrials }
func (s *Shared) Lmax() int              { return s.lmax }

// MinRadius returns the minimum radius of curvature the angle constraint
// permits, in field-space units.
func (s *Shared) MinRadius() float64 {
	if s.maxAngle == 0 {
		return math.Inf(1)
	}
	return s.stepSize / s.maxAngle
}
