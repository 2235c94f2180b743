package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MinObservations is the minimum price history for any forecast.
const MinObservations = 30

// Forecaster produces blended multi-horizon price forecasts by combining the
// decomposition and autoregressive sub-models. It holds no fit state between
// calls; the caller-owned cache is the only memory.
type Forecaster struct {
	cache     *Cache
	decompCfg DecompositionConfig
	arCfg     ARConfig
	log       zerolog.Logger
}

// Config holds forecaster construction options.
type Config struct {
	Cache          *Cache
	Decomposition  DecompositionConfig
	Autoregressive ARConfig
}

// New creates a forecaster. A nil cache disables memoization.
func New(cfg Config, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		cache:     cfg.Cache,
		decompCfg: cfg.Decomposition,
		arCfg:     cfg.Autoregressive,
		log:       log.With().Str("component", "forecaster").Logger(),
	}
}

// InvalidateCache drops all cached forecasts for a symbol.
func (f *Forecaster) InvalidateCache(symbol string) {
	if f.cache != nil {
		f.cache.Invalidate(symbol)
	}
}

// Forecast fits both sub-models on the price series and blends them across
// the requested horizons. The two fits run concurrently; a failure of one
// model does not abort the other, and the partial policy in opts decides how
// a lone survivor is served.
func (f *Forecaster) Forecast(ctx context.Context, series *domain.PriceSeries, opts Options) (*EnsembleForecast, error) {
	if series == nil || series.Len() < MinObservations {
		return nil, fmt.Errorf("%w: need at least %d observations to forecast", domain.ErrInsufficientData, MinObservations)
	}
	opts = opts.applyDefaults()

	key := cacheKey(series.Symbol, opts)
	if f.cache != nil {
		if cached, ok := f.cache.Get(key); ok {
			f.log.Debug().Str("symbol", series.Symbol).Msg("Serving forecast from cache")
			return cached, nil
		}
	}

	closes := series.Closes()
	currentPrice := series.LastClose()

	var (
		decompOut *ModelOutput
		arOut     *ModelOutput
		decompErr error
		arErr     error
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		decompOut, decompErr = fitDecomposition(closes, opts.Horizons, f.decompCfg)
		return nil
	})
	g.Go(func() error {
		arOut, arErr = fitAutoregressive(closes, opts.Horizons, f.arCfg)
		return nil
	})
	_ = g.Wait()

	if decompErr != nil {
		f.log.Warn().Err(decompErr).Str("symbol", series.Symbol).Msg("Decomposition model failed to fit")
		decompOut = nil
	}
	if arErr != nil {
		f.log.Warn().Err(arErr).Str("symbol", series.Symbol).Msg("Autoregressive model failed to fit")
		arOut = nil
	}

	if decompOut == nil && arOut == nil {
		return nil, fmt.Errorf("%w: both sub-models failed for %s", domain.ErrModelFit, series.Symbol)
	}

	now := time.Now()
	result := &EnsembleForecast{
		Symbol:       series.Symbol,
		CurrentPrice: currentPrice,
		DataOrigin:   series.Origin,
		Horizons:     combine(decompOut, arOut, currentPrice, now, opts),
		Confidence:   blendConfidence(decompOut, arOut, opts.Weights),
		WeightsUsed:  opts.Weights,
		GeneratedAt:  now,
	}

	if len(result.Horizons) == 0 {
		return nil, fmt.Errorf("%w: no horizon could be forecast for %s", domain.ErrModelFit, series.Symbol)
	}

	if f.cache != nil {
		f.cache.Put(key, result)
	}

	f.log.Info().
		Str("symbol", series.Symbol).
		Int("horizons", len(result.Horizons)).
		Float64("confidence", result.Confidence).
		Msg("Ensemble forecast generated")

	return result, nil
}
