package forecast

import (
	"fmt"
	"math"

	"github.com/aetherfin/analytics/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// Constants for the autoregressive model
const (
	arDefaultOrder = 5    // AR(5) on first differences, i.e. ARIMA(5,1,0)
	arIntervalZ    = 1.96 // 95% interval
	arMinResiduals = 10
)

// ARConfig tunes the autoregressive-integrated model.
type ARConfig struct {
	// Order is the number of lags; zero means the default of 5.
	Order int
}

// fitAutoregressive fits an AR(p) model on the first differences of the
// price series (an ARIMA(p,1,0)) by ordinary least squares and forecasts
// each horizon recursively. Confidence intervals accumulate the residual
// variance over the forecast steps.
func fitAutoregressive(closes []float64, horizons []int, cfg ARConfig) (*ModelOutput, error) {
	p := cfg.Order
	if p <= 0 {
		p = arDefaultOrder
	}

	if len(closes) < 2*p+arMinResiduals+1 {
		return nil, fmt.Errorf("%w: autoregressive model needs at least %d observations, got %d",
			domain.ErrModelFit, 2*p+arMinResiduals+1, len(closes))
	}

	diffs := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		diffs[i-1] = closes[i] - closes[i-1]
	}

	numRows := len(diffs) - p

	// Design matrix: intercept plus p lagged differences per row.
	x := mat.NewDense(numRows, p+1, nil)
	y := mat.NewVecDense(numRows, nil)
	for t := 0; t < numRows; t++ {
		x.Set(t, 0, 1.0)
		for lag := 1; lag <= p; lag++ {
			x.Set(t, lag, diffs[p+t-lag])
		}
		y.SetVec(t, diffs[p+t])
	}

	coef := mat.NewVecDense(p+1, nil)
	if err := coef.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("%w: least squares solve failed: %v", domain.ErrModelFit, err)
	}

	// In-sample fit on price levels for the quality score.
	var ssRes, ssTot, absErrSum float64
	meanPrice := 0.0
	for t := 0; t < numRows; t++ {
		meanPrice += closes[p+t+1]
	}
	meanPrice /= float64(numRows)

	for t := 0; t < numRows; t++ {
		predDiff := coef.AtVec(0)
		for lag := 1; lag <= p; lag++ {
			predDiff += coef.AtVec(lag) * diffs[p+t-lag]
		}
		predPrice := closes[p+t] + predDiff
		actual := closes[p+t+1]

		ssRes += (actual - predPrice) * (actual - predPrice)
		ssTot += (actual - meanPrice) * (actual - meanPrice)
		absErrSum += math.Abs(actual - predPrice)
	}

	s2 := ssRes / float64(numRows)
	mae := absErrSum / float64(numRows)

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	// Recursive multi-step forecast on the differenced series.
	lags := make([]float64, p)
	for i := 0; i < p; i++ {
		lags[i] = diffs[len(diffs)-1-i] // lags[0] = most recent diff
	}

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	points := make(map[int]PointForecast, len(horizons))
	wanted := make(map[int]bool, len(horizons))
	for _, h := range horizons {
		wanted[h] = true
	}

	price := closes[len(closes)-1]
	for step := 1; step <= maxHorizon; step++ {
		predDiff := coef.AtVec(0)
		for lag := 1; lag <= p; lag++ {
			predDiff += coef.AtVec(lag) * lags[lag-1]
		}
		price += predDiff

		// Shift the lag buffer with the new prediction.
		copy(lags[1:], lags[:p-1])
		lags[0] = predDiff

		if wanted[step] {
			spread := arIntervalZ * math.Sqrt(s2*float64(step))
			points[step] = PointForecast{
				Price: price,
				Lower: price - spread,
				Upper: price + spread,
			}
		}
	}

	return &ModelOutput{
		Name:       "autoregressive",
		Points:     points,
		Confidence: clamp01(r2),
		MAE:        mae,
	}, nil
}
