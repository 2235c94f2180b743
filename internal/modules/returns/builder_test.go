package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(symbol string, closes []float64) *domain.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Close:  c,
			Volume: 1000,
		}
	}
	return &domain.PriceSeries{Symbol: symbol, Origin: domain.OriginLive, Points: points}
}

// trendingSeries generates n days of prices with a fixed daily drift plus a
// deterministic wiggle so return variance is never zero.
func trendingSeries(symbol string, n int, start, drift float64) *domain.PriceSeries {
	closes := make([]float64, n)
	price := start
	for i := 0; i < n; i++ {
		wiggle := 0.002 * math.Sin(float64(i))
		price *= 1 + drift + wiggle
		closes[i] = price
	}
	return testSeries(symbol, closes)
}

func TestBuild_EqualWeightDefault(t *testing.T) {
	series := map[string]*domain.PriceSeries{
		"AAA": trendingSeries("AAA", 60, 100, 0.001),
		"BBB": trendingSeries("BBB", 60, 50, 0.002),
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"AAA", "BBB"}, matrix.Symbols)
	assert.InDelta(t, 0.5, matrix.Weights[0], 1e-9)
	assert.InDelta(t, 0.5, matrix.Weights[1], 1e-9)
	assert.Equal(t, 59, matrix.NumDays())
}

func TestBuild_AlignsToShortestSeries(t *testing.T) {
	series := map[string]*domain.PriceSeries{
		"LONG":  trendingSeries("LONG", 250, 100, 0.001),
		"SHORT": trendingSeries("SHORT", 40, 20, 0.001),
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, nil)
	require.NoError(t, err)

	// Shortest series has 40 prices -> 39 returns.
	assert.Equal(t, 39, matrix.NumDays())
	assert.Equal(t, 2, matrix.NumInstruments())
}

func TestBuild_DropsShortHistory(t *testing.T) {
	series := map[string]*domain.PriceSeries{
		"OK":    trendingSeries("OK", 100, 100, 0.001),
		"SHORT": trendingSeries("SHORT", 10, 50, 0.001), // below MinObservations
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, map[string]float64{
		"OK":    0.5,
		"SHORT": 0.5,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"OK"}, matrix.Symbols)
	assert.InDelta(t, 1.0, matrix.Weights[0], 1e-9)
}

func TestBuild_ZeroVarianceDroppedAndWeightsRenormalized(t *testing.T) {
	constant := make([]float64, 60)
	for i := range constant {
		constant[i] = 42.0
	}

	series := map[string]*domain.PriceSeries{
		"AAA":  trendingSeries("AAA", 60, 100, 0.001),
		"BBB":  trendingSeries("BBB", 60, 50, 0.002),
		"FLAT": testSeries("FLAT", constant),
	}
	weights := map[string]float64{
		"AAA":  0.5,
		"BBB":  0.25,
		"FLAT": 0.25,
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, weights)
	require.NoError(t, err)

	require.Equal(t, []string{"AAA", "BBB"}, matrix.Symbols)

	// Weights sum to 1 and preserve the 2:1 relative proportion.
	sum := 0.0
	for _, w := range matrix.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 2.0/3.0, matrix.Weights[0], 1e-9)
	assert.InDelta(t, 1.0/3.0, matrix.Weights[1], 1e-9)
}

func TestBuild_AllZeroVarianceFails(t *testing.T) {
	constant := make([]float64, 60)
	for i := range constant {
		constant[i] = 10.0
	}

	series := map[string]*domain.PriceSeries{
		"A": testSeries("A", constant),
		"B": testSeries("B", constant),
	}

	_, err := NewBuilder(zerolog.Nop()).Build(series, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestBuild_NoInstrumentsFails(t *testing.T) {
	_, err := NewBuilder(zerolog.Nop()).Build(map[string]*domain.PriceSeries{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestBuild_ReturnValues(t *testing.T) {
	padding := trendingSeries("PAD", 40, 10, 0.001)

	// Simple known prices for one instrument: 100 -> 110 -> 99.
	closes := make([]float64, 40)
	for i := 0; i < 37; i++ {
		closes[i] = 100 + 0.5*float64(i%5) // small deterministic variation
	}
	closes[37] = 100
	closes[38] = 110
	closes[39] = 99

	series := map[string]*domain.PriceSeries{
		"KNOWN": testSeries("KNOWN", closes),
		"PAD":   padding,
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, nil)
	require.NoError(t, err)

	col := matrix.Column(0)
	require.Equal(t, "KNOWN", matrix.Symbols[0])

	n := len(col)
	assert.InDelta(t, 0.10, col[n-2], 1e-9)  // 100 -> 110
	assert.InDelta(t, -0.10, col[n-1], 1e-9) // 110 -> 99
}

func TestPortfolioReturns_SingleInstrumentIdentity(t *testing.T) {
	series := map[string]*domain.PriceSeries{
		"ONLY": trendingSeries("ONLY", 80, 100, 0.001),
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(series, nil)
	require.NoError(t, err)

	portfolio := matrix.PortfolioReturns()
	col := matrix.Column(0)
	require.Equal(t, len(col), len(portfolio))
	for i := range col {
		assert.InDelta(t, col[i], portfolio[i], 1e-12)
	}
}

func TestRenormalizeWeights_ZeroTotalFallsBackToEqual(t *testing.T) {
	weights, err := renormalizeWeights(map[string]float64{"A": 0, "B": 0}, []string{"A", "B"})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
}
