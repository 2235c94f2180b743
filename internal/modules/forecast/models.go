package forecast

import (
	"fmt"
	"time"

	"github.com/aetherfin/analytics/internal/domain"
)

// PartialPolicy controls what happens to a horizon when exactly one of the
// two sub-models produced a usable forecast.
type PartialPolicy int

const (
	// FallbackToSurvivor uses the surviving model's output for the horizon
	// and flags it as degraded.
	FallbackToSurvivor PartialPolicy = iota
	// SkipHorizon omits the horizon from the ensemble output entirely.
	SkipHorizon
)

// Weights is the blend between the two sub-models. After normalization both
// components are within [0.2, 0.8] and sum to 1.
type Weights struct {
	Decomposition  float64 `json:"decomposition"`
	Autoregressive float64 `json:"autoregressive"`
}

// DefaultWeights favors the decomposition model 60/40, matching the
// historically better performer.
func DefaultWeights() Weights {
	return Weights{Decomposition: 0.6, Autoregressive: 0.4}
}

// normalized rescales the weights to sum to 1.
func (w Weights) normalized() Weights {
	total := w.Decomposition + w.Autoregressive
	if total <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Decomposition:  w.Decomposition / total,
		Autoregressive: w.Autoregressive / total,
	}
}

// Options configures one forecast call. Zero values fall back to
// DefaultOptions.
type Options struct {
	Horizons []int
	Weights  Weights
	Policy   PartialPolicy
}

// DefaultOptions returns the canonical forecast defaults: horizons of 1, 7
// and 30 days with a 60/40 blend and survivor fallback.
func DefaultOptions() Options {
	return Options{
		Horizons: []int{1, 7, 30},
		Weights:  DefaultWeights(),
		Policy:   FallbackToSurvivor,
	}
}

func (o Options) applyDefaults() Options {
	def := DefaultOptions()
	if len(o.Horizons) == 0 {
		o.Horizons = def.Horizons
	}
	if o.Weights.Decomposition == 0 && o.Weights.Autoregressive == 0 {
		o.Weights = def.Weights
	}
	o.Weights = o.Weights.normalized()
	return o
}

// PointForecast is one model's prediction for a single horizon.
type PointForecast struct {
	Price float64 `json:"price"`
	Lower float64 `json:"confidence_lower"`
	Upper float64 `json:"confidence_upper"`
}

// ModelOutput is the result of fitting one sub-model: per-horizon point
// forecasts plus quality indicators.
type ModelOutput struct {
	Name       string
	Points     map[int]PointForecast
	Confidence float64 // 0-1 quality score
	MAE        float64 // in-sample mean absolute error
}

// HorizonForecast is the blended prediction for one horizon. When Degraded
// is true only one component model contributed.
type HorizonForecast struct {
	HorizonDays   int                      `json:"horizon_days"`
	Date          time.Time                `json:"date"`
	Price         float64                  `json:"price"`
	Lower         float64                  `json:"confidence_lower"`
	Upper         float64                  `json:"confidence_upper"`
	ChangePercent float64                  `json:"change_percent"`
	Degraded      bool                     `json:"degraded"`
	Components    map[string]PointForecast `json:"component_predictions"`
}

// EnsembleForecast is the full output for one instrument across all
// requested horizons.
type EnsembleForecast struct {
	Symbol       string            `json:"symbol"`
	CurrentPrice float64           `json:"current_price"`
	DataOrigin   domain.DataOrigin `json:"data_source"`
	Horizons     []HorizonForecast `json:"predictions"`
	Confidence   float64           `json:"ensemble_confidence"`
	WeightsUsed  Weights           `json:"weights_used"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// cacheKey identifies a forecast by everything that affects its output.
func cacheKey(symbol string, opts Options) string {
	return fmt.Sprintf("%s|%v|%.4f:%.4f", symbol, opts.Horizons, opts.Weights.Decomposition, opts.Weights.Autoregressive)
}
