package forecast

import (
	"math"
	"time"
)

// Weight clamp bounds: neither model is ever fully discounted, even after a
// long stretch of bad performance.
const (
	minModelWeight = 0.2
	maxModelWeight = 0.8
)

// UpdateWeightsByPerformance recomputes the blend from two recent mean
// absolute errors using inverse-error weighting: the better model gets the
// larger weight. Both weights are clamped to [0.2, 0.8] and renormalized.
func UpdateWeightsByPerformance(decompMAE, arMAE float64) Weights {
	w := DefaultWeights()

	if decompMAE > 0 && arMAE > 0 {
		invA := 1 / decompMAE
		invB := 1 / arMAE
		total := invA + invB
		w.Decomposition = invA / total
		w.Autoregressive = invB / total
	}

	w.Decomposition = clampWeight(w.Decomposition)
	w.Autoregressive = clampWeight(w.Autoregressive)

	return w.normalized()
}

func clampWeight(v float64) float64 {
	return math.Max(minModelWeight, math.Min(maxModelWeight, v))
}

// combine blends the two sub-model outputs across the requested horizons.
// Either output may be nil (a failed fit); the partial policy decides whether
// the horizon is skipped or served degraded by the survivor. A blended value
// is never built from one real and one missing number.
func combine(decomp, ar *ModelOutput, currentPrice float64, now time.Time, opts Options) []HorizonForecast {
	horizons := make([]HorizonForecast, 0, len(opts.Horizons))

	for _, h := range opts.Horizons {
		var a, b *PointForecast
		if decomp != nil {
			if pt, ok := decomp.Points[h]; ok {
				a = &pt
			}
		}
		if ar != nil {
			if pt, ok := ar.Points[h]; ok {
				b = &pt
			}
		}

		date := now.AddDate(0, 0, h)

		switch {
		case a != nil && b != nil:
			price := opts.Weights.Decomposition*a.Price + opts.Weights.Autoregressive*b.Price
			// The ensemble interval is deliberately the union of the two
			// component intervals: taking the narrower of two disagreeing
			// models would understate true uncertainty.
			horizons = append(horizons, HorizonForecast{
				HorizonDays:   h,
				Date:          date,
				Price:         price,
				Lower:         math.Min(a.Lower, b.Lower),
				Upper:         math.Max(a.Upper, b.Upper),
				ChangePercent: percentChange(price, currentPrice),
				Components: map[string]PointForecast{
					"decomposition":  *a,
					"autoregressive": *b,
				},
			})

		case a != nil && opts.Policy == FallbackToSurvivor:
			horizons = append(horizons, survivorForecast(h, date, *a, "decomposition", currentPrice))

		case b != nil && opts.Policy == FallbackToSurvivor:
			horizons = append(horizons, survivorForecast(h, date, *b, "autoregressive", currentPrice))

			// SkipHorizon or both missing: nothing to emit.
		}
	}

	return horizons
}

func survivorForecast(h int, date time.Time, pt PointForecast, name string, currentPrice float64) HorizonForecast {
	return HorizonForecast{
		HorizonDays:   h,
		Date:          date,
		Price:         pt.Price,
		Lower:         pt.Lower,
		Upper:         pt.Upper,
		ChangePercent: percentChange(pt.Price, currentPrice),
		Degraded:      true,
		Components:    map[string]PointForecast{name: pt},
	}
}

// blendConfidence combines the model-quality indicators with the same blend
// weights. With a single surviving model the score is discounted: one
// opinion is worth less than two agreeing ones.
func blendConfidence(decomp, ar *ModelOutput, w Weights) float64 {
	switch {
	case decomp != nil && ar != nil:
		return w.Decomposition*decomp.Confidence + w.Autoregressive*ar.Confidence
	case decomp != nil:
		return decomp.Confidence * 0.5
	case ar != nil:
		return ar.Confidence * 0.5
	default:
		return 0
	}
}

func percentChange(price, currentPrice float64) float64 {
	if currentPrice == 0 {
		return 0
	}
	return (price - currentPrice) / currentPrice * 100
}
