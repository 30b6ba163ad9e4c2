package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
)

// LengthHistogram buckets values into bins and renders the counts as an
// ascii plot with a range caption.
func LengthHistogram(values []float64, bins, height int) string {
	if len(values) == 0 {
		return "no data"
	}
	if bins < 1 {
		bins = 10
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	counts := make([]float64, bins)
	for _, v := range values {
		i := int(float64(bins) * (v - lo) / (hi - lo))
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}

	return asciigraph.Plot(counts,
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("range %.2f – %.2f (%d samples)", lo, hi, len(values))),
	)
}

// Series renders a value sequence as an ascii line plot.
func Series(values []float64, height int, caption string) string {
	if len(values) == 0 {
		return "no data"
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}
