package bench

import (
	"math"
	"sort"
)

// ComputeStats sorts samples in place and returns their mean and nearest-rank
// percentiles. An empty input yields all zeros.
func ComputeStats(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	sort.Float64s(samples)

	var sum float64
	for _, v := range samples {
		sum += v
	}

	return Stats{
		Avg: sum / float64(len(samples)),
		P50: pct(samples, 0.50),
		P95: pct(samples, 0.95),
		P99: pct(samples, 0.99),
	}
}

// MedianResult picks the median run by p50 latency from multiple runs.
func MedianResult(runs []Result) Result {
	if len(runs) == 1 {
		return runs[0]
	}
	sorted := append([]Result(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].P50Ms < sorted[j].P50Ms })
	return sorted[len(sorted)/2]
}

// SteadyState checks if throughput variance across runs is within tolerance.
func SteadyState(runs []Result, tolerance float64) (bool, float64) {
	if len(runs) < 2 {
		return true, 0
	}
	var sum float64
	for _, r := range runs {
		sum += r.ThroughputOps
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false, 0
	}

	var maxDev float64
	for _, r := range runs {
		dev := math.Abs(r.ThroughputOps-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}

// pct reads the nearest-rank percentile p (0..1) from sorted samples.
func pct(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
