package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fibertrack/internal/runner"
	"github.com/san-kum/fibertrack/internal/tracking"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLength(t *testing.T) {
	m := NewLength()
	if m.Value() != 0 {
		t.Errorf("empty Value = %g, want 0", m.Value())
	}

	m.Observe(runner.Streamline{{}, {X: 2}}, tracking.Stats{})
	m.Observe(runner.Streamline{{}, {Y: 4}}, tracking.Stats{})
	if got := m.Value(); math.Abs(got-3) > 1e-12 {
		t.Errorf("mean length = %g, want 3", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("Value after Reset = %g, want 0", m.Value())
	}
}

func TestTrials(t *testing.T) {
	m := NewTrials()
	if m.Value() != 0 {
		t.Errorf("empty Value = %g, want 0", m.Value())
	}

	s := runner.Streamline{{}, {Z: 1}}
	m.Observe(s, tracking.Stats{Steps: 10, Trials: 30})
	m.Observe(s, tracking.Stats{Steps: 10, Trials: 10})
	if got := m.Value(); got != 2 {
		t.Errorf("trials per step = %g, want 2", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("Value after Reset = %g, want 0", m.Value())
	}
}

func TestCurvature(t *testing.T) {
	m := NewCurvature()
	if m.Value() != 0 {
		t.Errorf("empty Value = %g, want 0", m.Value())
	}

	// Straight polyline turns by zero.
	m.Observe(runner.Streamline{{}, {X: 1}, {X: 2}, {X: 3}}, tracking.Stats{})
	if got := m.Value(); got != 0 {
		t.Errorf("straight turn angle = %g, want 0", got)
	}

	// A single right-angle corner.
	m.Reset()
	m.Observe(runner.Streamline{{}, {X: 1}, r3.Vec{X: 1, Y: 1}}, tracking.Stats{})
	if got := m.Value(); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("corner turn angle = %g, want pi/2", got)
	}
}

var _ runner.Metric = (*Length)(nil)
var _ runner.Metric = (*Trials)(nil)
var _ runner.Metric = (*Curvature)(nil)
