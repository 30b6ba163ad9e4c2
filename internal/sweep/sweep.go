// Package sweep enumerates tracking-parameter grids and keeps the
// combination that maximizes a chosen run metric.
package sweep

import (
	"context"
	"fmt"
	"math"
)

// RunFunc executes one tracking run with the given parameter overrides
// and returns its metrics by name.
type RunFunc func(ctx context.Context, params map[string]float64) (map[string]float64, error)

type Grid struct {
	names  []string
	ranges [][]float64
}

func New(names []string, ranges [][]float64) (*Grid, error) {
	if len(names) != len(ranges) {
		return nil, fmt.Errorf("sweep: %d names for %d ranges", len(names), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("sweep: empty range for %s", names[i])
		}
	}
	return &Grid{names: names, ranges: ranges}, nil
}

// Point is one evaluated grid combination.
type Point struct {
	Params map[string]float64
	Value  float64
}

// Search runs every combination and returns the one maximizing metric,
// plus the full trace in enumeration order. Runs that fail are skipped.
func (g *Grid) Search(ctx context.Context, run RunFunc, metric string) (Point, []Point, error) {
	best := Point{Value: math.Inf(-1)}
	var trace []Point

	var walk func(depth int, current map[string]float64) error
	walk = func(depth int, current map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth == len(g.names) {
			params := clone(current)
			metrics, err := run(ctx, params)
			if err != nil {
				return nil // skip failed combination
			}
			val, ok := metrics[metric]
			if !ok {
				return fmt.Errorf("sweep: run did not report metric %q", metric)
			}
			p := Point{Params: params, Value: val}
			trace = append(trace, p)
			if val > best.Value {
				best = p
			}
			return nil
		}
		for _, v := range g.ranges[depth] {
			current[g.names[depth]] = v
			if err := walk(depth+1, current); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, make(map[string]float64)); err != nil {
		return Point{}, nil, err
	}
	if len(trace) == 0 {
		return Point{}, nil, fmt.Errorf("sweep: no combination completed")
	}
	return best, trace, nil
}

func clone(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
