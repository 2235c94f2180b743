package formulas

import (
	"math"
	"sort"
)

// ValueAtRisk calculates VaR from simulated terminal portfolio values.
// VaR is the loss relative to the initial stake at the (1-confidence)
// percentile of outcomes, not relative to the expected value.
//
// Args:
//   - terminalValues: Simulated end-of-horizon portfolio values
//   - investment: Initial investment amount
//   - confidence: Confidence level (e.g., 0.95 for 95%)
//
// Returns:
//   - VaR value (positive = loss)
func ValueAtRisk(terminalValues []float64, investment, confidence float64) float64 {
	if len(terminalValues) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(terminalValues))
	copy(sorted, terminalValues)
	sort.Float64s(sorted)

	index := int((1.0 - confidence) * float64(len(sorted)))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return investment - sorted[index]
}

// ConditionalValueAtRisk calculates CVaR (expected shortfall) from simulated
// terminal portfolio values: the average loss across the outcomes below the
// VaR percentile. Falls back to VaR when the tail set is empty.
func ConditionalValueAtRisk(terminalValues []float64, investment, confidence float64) float64 {
	if len(terminalValues) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(terminalValues))
	copy(sorted, terminalValues)
	sort.Float64s(sorted)

	index := int((1.0 - confidence) * float64(len(sorted)))
	if index == 0 {
		return ValueAtRisk(terminalValues, investment, confidence)
	}

	sum := 0.0
	for _, v := range sorted[:index] {
		sum += v
	}

	return investment - sum/float64(index)
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks, matching numpy.percentile.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// Histogram bins values into numBins equal-width buckets over [min, max].
// Returns the left bin edges and per-bin counts. The final bucket is closed
// on the right so the maximum value is counted.
func Histogram(values []float64, numBins int) ([]float64, []int) {
	if len(values) == 0 || numBins <= 0 {
		return []float64{}, []int{}
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	edges := make([]float64, numBins)
	counts := make([]int, numBins)

	width := (maxVal - minVal) / float64(numBins)
	if width == 0 {
		// All values identical: single populated bucket.
		edges[0] = minVal
		counts[0] = len(values)
		return edges, counts
	}

	for i := 0; i < numBins; i++ {
		edges[i] = minVal + float64(i)*width
	}

	for _, v := range values {
		bin := int((v - minVal) / width)
		if bin >= numBins {
			bin = numBins - 1
		}
		counts[bin]++
	}

	return edges, counts
}
