package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticCloses builds n days of prices with a linear drift and a small
// deterministic wiggle so every model has something to fit.
func syntheticCloses(n int, start, dailyDrift float64) []float64 {
	closes := make([]float64, n)
	price := start
	for i := 0; i < n; i++ {
		price += dailyDrift
		closes[i] = price + 0.5*math.Sin(float64(i)) + 0.25*math.Sin(float64(i*i))
	}
	return closes
}

func TestFitDecomposition_InsufficientData(t *testing.T) {
	_, err := fitDecomposition(syntheticCloses(10, 100, 0.1), []int{1}, DecompositionConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelFit))
}

func TestFitDecomposition_FollowsUpwardTrend(t *testing.T) {
	closes := syntheticCloses(120, 100, 0.5)

	out, err := fitDecomposition(closes, []int{1, 7, 30}, DecompositionConfig{})
	require.NoError(t, err)
	require.Len(t, out.Points, 3)

	last := closes[len(closes)-1]
	// A steady half-point daily climb should extrapolate upward.
	assert.Greater(t, out.Points[30].Price, last)
	assert.Greater(t, out.Points[30].Price, out.Points[1].Price)
}

func TestFitDecomposition_IntervalWidensWithHorizon(t *testing.T) {
	closes := syntheticCloses(120, 100, 0.2)

	out, err := fitDecomposition(closes, []int{1, 7, 30}, DecompositionConfig{})
	require.NoError(t, err)

	spread := func(h int) float64 { return out.Points[h].Upper - out.Points[h].Lower }
	assert.Less(t, spread(1), spread(7))
	assert.Less(t, spread(7), spread(30))

	for h, pt := range out.Points {
		assert.Lessf(t, pt.Lower, pt.Price, "horizon %d", h)
		assert.Greaterf(t, pt.Upper, pt.Price, "horizon %d", h)
	}
}

func TestFitDecomposition_ConfidenceInRange(t *testing.T) {
	out, err := fitDecomposition(syntheticCloses(90, 50, 0.1), []int{7}, DecompositionConfig{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, out.Confidence, 0.0)
	assert.LessOrEqual(t, out.Confidence, 1.0)
	assert.Greater(t, out.MAE, 0.0)
	assert.Equal(t, "decomposition", out.Name)
}

func TestFitDecomposition_FlexibilityShortensSlopeWindow(t *testing.T) {
	// Prices fall for most of the history, then turn sharply upward. A
	// fully flexible trend fits only the recent climb and must forecast
	// higher than the rigid one.
	closes := make([]float64, 150)
	price := 200.0
	for i := 0; i < 120; i++ {
		price -= 0.5
		closes[i] = price + 0.3*math.Sin(float64(i))
	}
	for i := 120; i < 150; i++ {
		price += 2.0
		closes[i] = price + 0.3*math.Sin(float64(i))
	}

	rigid, err := fitDecomposition(closes, []int{30}, DecompositionConfig{ChangepointFlexibility: 0})
	require.NoError(t, err)
	flexible, err := fitDecomposition(closes, []int{30}, DecompositionConfig{ChangepointFlexibility: 1})
	require.NoError(t, err)

	assert.Greater(t, flexible.Points[30].Price, rigid.Points[30].Price)
}
