// Package stats aggregates search iteration timings into the summary the
// harness prints.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Summary holds the aggregate of one sample set, values in milliseconds.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P90    float64
	P95    float64
	StdDev float64
}

// Aggregate reduces elapsed-time samples (milliseconds, order-irrelevant)
// to a Summary. The median of an even count is the average of the two
// middle sorted samples; percentiles pick the sorted sample at index
// floor(p*n), clamped to n-1; the standard deviation is the population
// form. An empty input yields the zero Summary.
func Aggregate(samples []float64) Summary {
	n := len(samples)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, s := range sorted {
		d := s - mean
		sqDiff += d * d
	}

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Summary{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   mean,
		Median: median,
		P90:    percentile(sorted, 0.90),
		P95:    percentile(sorted, 0.95),
		StdDev: math.Sqrt(sqDiff / float64(n)),
	}
}

// percentile picks the sorted sample at floor(p*n), clamped to the last
// index. sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// String renders the report block printed after the harness iterations.
func (s Summary) String() string {
	return fmt.Sprintf(
		"iterations: %d\n"+
			"  min:    %10.3f ms\n"+
			"  max:    %10.3f ms\n"+
			"  mean:   %10.3f ms\n"+
			"  median: %10.3f ms\n"+
			"  p90:    %10.3f ms\n"+
			"  p95:    %10.3f ms\n"+
			"  stddev: %10.3f ms",
		s.Count, s.Min, s.Max, s.Mean, s.Median, s.P90, s.P95, s.StdDev)
}
