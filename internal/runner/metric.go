package runner

import "github.com/san-kum/fibertrack/internal/tracking"

// Metric observes each kept streamline of a run and reduces to a single
// value. Metrics are reset and re-observed by Run, serially, after all
// tracking tasks finish.
type Metric interface {
	Name() string
	Observe(s Streamline, st tracking.Stats)
	Value() float64
	Reset()
}
