package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.InDelta(t, 3.0, Mean([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.InDelta(t, -1.5, Mean([]float64{-1, -2}), 1e-9)
	assert.Equal(t, 0.0, Mean(nil))
}

func TestStdDev(t *testing.T) {
	// Sample (n-1) standard deviation of {2,4,4,4,5,5,7,9} is sqrt(32/7).
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, math.Sqrt(32.0/7.0), got, 1e-9)

	assert.Equal(t, 0.0, StdDev(nil))
	assert.InDelta(t, 0.0, StdDev([]float64{3, 3, 3}), 1e-9)
}

func TestVariance(t *testing.T) {
	assert.InDelta(t, 2.5, Variance([]float64{1, 2, 3, 4, 5}), 1e-9)

	// Degenerate inputs must not produce NaN.
	assert.Equal(t, 0.0, Variance(nil))
	assert.Equal(t, 0.0, Variance([]float64{42}))
}

func TestMedian(t *testing.T) {
	assert.InDelta(t, 3.0, Median([]float64{5, 1, 3, 2, 4}), 1e-9)
	assert.InDelta(t, 2.5, Median([]float64{1, 2, 3, 4}), 1e-9)
	assert.Equal(t, 0.0, Median(nil))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, -0.005, 0.01, -0.01, 0.02, 0.0}

	got := AnnualizedVolatility(returns)
	assert.InDelta(t, StdDev(returns)*math.Sqrt(252), got, 1e-9)

	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}
