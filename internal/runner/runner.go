package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/san-kum/fibertrack/internal/tracking"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is the volumetric collaborator the runner tracks through: a
// position-indexed SH coefficient sampler that knows its vector length.
type Field interface {
	tracking.FieldSampler
	NumCoef() int
}

// Streamline is an ordered list of vertices, seed-first for a
// unidirectional track and end-to-end for a bidirectional one.
type Streamline []r3.Vec

// Length returns the polyline length of s.
func (s Streamline) Length() float64 {
	sum := 0.0
	for i := 1; i < len(s); i++ {
		sum += r3.Norm(r3.Sub(s[i], s[i-1]))
	}
	return sum
}

// Options configures one tracking run.
type Options struct {
	// Attempts is the number of seed points drawn. Each attempt yields
	// at most one streamline.
	Attempts int

	// Workers is the number of concurrent tracking tasks. Zero or
	// negative means one.
	Workers int

	// Seed is the base random seed; attempt i uses Seed + i, so a run
	// is reproducible independent of worker count.
	Seed int64

	// SeedLo and SeedHi bound the box seed points are drawn from.
	SeedLo, SeedHi r3.Vec

	// MaxSteps bounds the steps taken per direction.
	MaxSteps int

	// MinVertices discards streamlines shorter than this many vertices.
	MinVertices int

	// Unidirectional disables the reverse leg from each seed.
	Unidirectional bool

	// OnProgress, when non-nil, is called after every finished attempt
	// with the number of attempts completed so far.
	OnProgress func(done, total int)
}

func (o *Options) validate() error {
	if o.Attempts < 1 {
		return fmt.Errorf("runner: need at least one attempt, got %d", o.Attempts)
	}
	if o.MaxSteps < 1 {
		return fmt.Errorf("runner: need at least one step per direction, got %d", o.MaxSteps)
	}
	if o.SeedHi.X < o.SeedLo.X || o.SeedHi.Y < o.SeedLo.Y || o.SeedHi.Z < o.SeedLo.Z {
		return fmt.Errorf("runner: empty seed box")
	}
	return nil
}

// Result collects the output of one tracking run.
type Result struct {
	Streamlines  []Streamline
	Attempts     int
	SeedFailures int
	Discarded    int
	Stats        tracking.Stats
}

// Runner tracks many streamlines in parallel over one shared
// configuration. Each task owns a private Tracker and random source;
// the only shared state is the immutable configuration and field.
type Runner struct {
	shared  *tracking.Shared
	field   Field
	metrics []Metric
}

// New builds a runner over the shared configuration and field.
func New(shared *tracking.Shared, field Field) *Runner {
	return &Runner{shared: shared, field: field}
}

// AddMetric registers a metric observed once per kept streamline.
func (r *Runner) AddMetric(m Metric) { r.metrics = append(r.metrics, m) }

// Run draws opts.Attempts seed points and tracks a streamline from each,
// spreading attempts over opts.Workers goroutines. Streamlines are
// returned in attempt order regardless of scheduling. Cancellation is
// honored between streamlines; a single step never blocks.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Attempts {
		workers = opts.Attempts
	}

	slots := make([]Streamline, opts.Attempts)
	stats := make([]tracking.Stats, opts.Attempts)
	seedFailures := make([]bool, opts.Attempts)

	var done atomic.Int64
	attempts := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range attempts {
				slots[i], stats[i], seedFailures[i] = r.track(opts, i)
				if opts.OnProgress != nil {
					opts.OnProgress(int(done.Add(1)), opts.Attempts)
				}
			}
		}()
	}

	var err error
feed:
	for i := 0; i < opts.Attempts; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case attempts <- i:
		}
	}
	close(attempts)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	res := &Result{Attempts: opts.Attempts}
	for i, s := range slots {
		res.Stats.Steps += stats[i].Steps
		res.Stats.Trials += stats[i].Trials
		switch {
		case seedFailures[i]:
			res.SeedFailures++
		case len(s) < opts.MinVertices:
			res.Discarded++
		default:
			res.Streamlines = append(res.Streamlines, s)
		}
	}

	for _, m := range r.metrics {
		m.Reset()
		for i, s := range slots {
			if !seedFailures[i] && len(s) >= opts.MinVertices {
				m.Observe(s, stats[i])
			}
		}
	}
	return res, nil
}

// track runs one attempt: a private tracker per leg, seeded from the
// attempt-indexed random stream.
func (r *Runner) track(opts Options, attempt int) (Streamline, tracking.Stats, bool) {
	src := tracking.NewSource(opts.Seed + int64(attempt))
	seed := r3.Vec{
		X: opts.SeedLo.X + src.Uniform()*(opts.SeedHi.X-opts.SeedLo.X),
		Y: opts.SeedLo.Y + src.Uniform()*(opts.SeedHi.Y-opts.SeedLo.Y),
		Z: opts.SeedLo.Z + src.Uniform()*(opts.SeedHi.Z-opts.SeedLo.Z),
	}

	tr := tracking.New(r.shared, r.field, src, r.field.NumCoef())
	if !tr.Init(seed) {
		return nil, tr.Stats(), true
	}
	seedDir := tr.Direction()

	forward := Streamline{tr.Position()}
	for len(forward) <= opts.MaxSteps && tr.Next() {
		forward = append(forward, tr.Position())
	}
	st := tr.Stats()

	if opts.Unidirectional {
		return forward, st, false
	}

	rev := tracking.New(r.shared, r.field, src, r.field.NumCoef())
	var backward Streamline
	if rev.InitAlong(seed, r3.Scale(-1, seedDir)) {
		for len(backward) < opts.MaxSteps && rev.Next() {
			backward = append(backward, rev.Position())
		}
	}
	rst := rev.Stats()
	st.Steps += rst.Steps
	st.Trials += rst.Trials

	// Stitch end-to-end: reversed backward leg, then the seed-first
	// forward leg.
	full := make(Streamline, 0, len(backward)+len(forward))
	for i := len(backward) - 1; i >= 0; i-- {
		full = append(full, backward[i])
	}
	full = append(full, forward...)
	return full, st, false
}
