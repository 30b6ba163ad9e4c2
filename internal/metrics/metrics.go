// Package metrics provides per-run streamline metrics for the tracking
// runner.
package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fibertrack/internal/runner"
	"github.com/san-kum/fibertrack/internal/tracking"
)

// Length reduces to the mean polyline length of the kept streamlines.
type Length struct {
	lengths []float64
}

func NewLength() *Length { return &Length{} }

func (l *Length) Name() string { return "mean_length" }

func (l *Length) Observe(s runner.Streamline, _ tracking.Stats) {
	l.lengths = append(l.lengths, s.Length())
}

func (l *Length) Value() float64 {
	if len(l.lengths) == 0 {
		return 0
	}
	return stat.Mean(l.lengths, nil)
}

func (l *Length) Reset() { l.lengths = l.lengths[:0] }

// Trials reduces to the mean rejection trials per accepted step over
// the whole run, the tracker's core efficiency diagnostic.
type Trials struct {
	trials int
	steps  int
}

func NewTrials() *Trials { return &Trials{} }

func (t *Trials) Name() string { return "trials_per_step" }

func (t *Trials) Observe(_ runner.Streamline, st tracking.Stats) {
	t.trials += st.Trials
	t.steps += st.Steps
}

func (t *Trials) Value() float64 {
	return tracking.Stats{Steps: t.steps, Trials: t.trials}.MeanTrialsPerStep()
}

func (t *Trials) Reset() {
	t.trials = 0
	t.steps = 0
}
