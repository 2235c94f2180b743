package forecast

import (
	"fmt"
	"math"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/pkg/formulas"
	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Constants for the decomposition model
const (
	decompTrendWindow    = 7  // SMA window for trend extraction
	decompSeasonalPeriod = 7  // weekly seasonality
	decompMaxSlopeWindow = 63 // quarter of trading days
	decompMinSlopeWindow = 7
	decompIntervalZ      = 1.96 // 95% interval
)

// DecompositionConfig tunes the additive trend + seasonality model.
type DecompositionConfig struct {
	// ChangepointFlexibility in [0, 1] controls how quickly the trend
	// extrapolation reacts to recent changes: higher values fit the slope
	// over a shorter recent window.
	ChangepointFlexibility float64
}

// fitDecomposition fits an additive trend + weekly seasonality model on the
// price series and forecasts each horizon.
//
// The trend is a moving-average smoothing of the closes; the slope of its
// recent segment is extrapolated linearly. Weekly seasonality is the mean
// detrended deviation per weekday slot. Confidence intervals come from the
// residual standard deviation, widening with the square root of the horizon.
func fitDecomposition(closes []float64, horizons []int, cfg DecompositionConfig) (*ModelOutput, error) {
	if len(closes) < 2*decompTrendWindow+decompSeasonalPeriod {
		return nil, fmt.Errorf("%w: decomposition model needs at least %d observations, got %d",
			domain.ErrModelFit, 2*decompTrendWindow+decompSeasonalPeriod, len(closes))
	}

	trend := talib.Sma(closes, decompTrendWindow)
	valid := decompTrendWindow - 1 // indices before this hold no SMA value

	// Weekly seasonality: mean detrended deviation per position mod 7.
	seasonal := make([]float64, decompSeasonalPeriod)
	counts := make([]int, decompSeasonalPeriod)
	for i := valid; i < len(closes); i++ {
		slot := i % decompSeasonalPeriod
		seasonal[slot] += closes[i] - trend[i]
		counts[slot]++
	}
	for k := range seasonal {
		if counts[k] > 0 {
			seasonal[k] /= float64(counts[k])
		}
	}

	// Residuals after removing trend and seasonality.
	residuals := make([]float64, 0, len(closes)-valid)
	absErrSum := 0.0
	for i := valid; i < len(closes); i++ {
		fit := trend[i] + seasonal[i%decompSeasonalPeriod]
		residuals = append(residuals, closes[i]-fit)
		absErrSum += math.Abs(closes[i] - fit)
	}
	sigma := formulas.StdDev(residuals)
	mae := absErrSum / float64(len(residuals))

	// Trend slope over a recent window scaled by changepoint flexibility.
	flex := cfg.ChangepointFlexibility
	if flex < 0 {
		flex = 0
	}
	if flex > 1 {
		flex = 1
	}
	slopeWindow := int(math.Round(float64(decompMaxSlopeWindow) * (1 - flex)))
	if slopeWindow < decompMinSlopeWindow {
		slopeWindow = decompMinSlopeWindow
	}
	if avail := len(closes) - valid; slopeWindow > avail {
		slopeWindow = avail
	}

	xs := make([]float64, slopeWindow)
	ys := make([]float64, slopeWindow)
	for i := 0; i < slopeWindow; i++ {
		xs[i] = float64(i)
		ys[i] = trend[len(trend)-slopeWindow+i]
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)

	lastIdx := len(closes) - 1
	lastTrend := trend[lastIdx]

	points := make(map[int]PointForecast, len(horizons))
	for _, h := range horizons {
		yhat := lastTrend + slope*float64(h) + seasonal[(lastIdx+h)%decompSeasonalPeriod]
		spread := decompIntervalZ * sigma * math.Sqrt(float64(h))
		points[h] = PointForecast{
			Price: yhat,
			Lower: yhat - spread,
			Upper: yhat + spread,
		}
	}

	// Error-based confidence: normalize the in-sample RMSE by the price
	// level so the score is scale-free.
	rmse := 0.0
	for _, r := range residuals {
		rmse += r * r
	}
	rmse = math.Sqrt(rmse / float64(len(residuals)))
	meanPrice := formulas.Mean(closes)
	confidence := 1.0
	if meanPrice > 0 {
		confidence = 1.0 / (1.0 + 10.0*rmse/meanPrice)
	}

	return &ModelOutput{
		Name:       "decomposition",
		Points:     points,
		Confidence: clamp01(confidence),
		MAE:        mae,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
