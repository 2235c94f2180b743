package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDays is the annualization basis for daily return statistics.
const tradingDays = 252

// Mean returns the arithmetic mean. Empty input yields 0.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation. Empty input yields 0.
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance returns the sample variance. Fewer than two observations
// yield 0 rather than NaN.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Median returns the 50th percentile.
func Median(data []float64) float64 {
	return Percentile(data, 50)
}

// AnnualizedVolatility scales the standard deviation of daily returns
// to a yearly figure over 252 trading days.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(tradingDays)
}
