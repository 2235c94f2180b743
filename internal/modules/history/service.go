// Package history provides daily price series with a live, cached and
// synthetic fallback chain. Every series carries its origin so downstream
// consumers always know what kind of data they are looking at.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aetherfin/analytics/internal/domain"
)

// DataSource fetches daily price history for one instrument.
type DataSource interface {
	FetchDailyHistory(ctx context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error)
}

// Defaults for live fetching.
const (
	DefaultFetchTimeout = 15 * time.Second
	DefaultRateLimit    = rate.Limit(2) // upstream requests per second
	DefaultRateBurst    = 4
)

// Config holds service construction options.
type Config struct {
	// Live is the primary upstream source.
	Live DataSource
	// Store is the local cache; nil disables caching and the stale tier.
	Store *Store
	// Synthetic, when set, is the last-resort source. Its output is
	// re-flagged as synthetic no matter what the source claims.
	Synthetic DataSource

	FetchTimeout time.Duration
	RateLimit    rate.Limit
	RateBurst    int
}

// Service serves price history with a live -> stale -> synthetic fallback
// chain.
type Service struct {
	live      DataSource
	store     *Store
	synthetic DataSource
	timeout   time.Duration
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// NewService creates a new history service.
func NewService(cfg Config, log zerolog.Logger) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}

	return &Service{
		live:      cfg.Live,
		store:     cfg.Store,
		synthetic: cfg.Synthetic,
		timeout:   cfg.FetchTimeout,
		limiter:   rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		log:       log.With().Str("component", "history").Logger(),
	}
}

// GetHistory returns the daily price series for a symbol covering
// lookbackDays. Live data is cached on the way through; when the upstream
// fails the cache is served flagged stale, and only with both unavailable is
// the synthetic source consulted. ErrDataUnavailable is returned when every
// tier fails.
func (s *Service) GetHistory(ctx context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrDataUnavailable)
	}
	if lookbackDays <= 0 {
		lookbackDays = 365
	}

	series, liveErr := s.fetchLive(ctx, symbol, lookbackDays)
	if liveErr == nil {
		if s.store != nil {
			if err := s.store.Upsert(ctx, series); err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache live history")
			}
		}
		return series, nil
	}
	s.log.Warn().Err(liveErr).Str("symbol", symbol).Msg("Live history unavailable, trying cache")

	if s.store != nil {
		cached, err := s.store.Load(ctx, symbol, lookbackDays)
		if err == nil {
			s.log.Info().Str("symbol", symbol).Int("points", cached.Len()).Msg("Serving stale history from cache")
			return cached, nil
		}
	}

	if s.synthetic != nil {
		fallback, err := s.synthetic.FetchDailyHistory(ctx, symbol, lookbackDays)
		if err == nil {
			fallback.Origin = domain.OriginSynthetic
			s.log.Warn().Str("symbol", symbol).Msg("Serving synthetic history")
			return fallback, nil
		}
	}

	return nil, fmt.Errorf("%w: all sources failed for %s: %v", domain.ErrDataUnavailable, symbol, liveErr)
}

// GetPortfolioHistory fetches history for every symbol in the portfolio.
// A symbol with no data from any tier fails the whole call; partial
// portfolios would silently skew the analysis downstream.
func (s *Service) GetPortfolioHistory(ctx context.Context, symbols []string, lookbackDays int) (map[string]*domain.PriceSeries, error) {
	result := make(map[string]*domain.PriceSeries, len(symbols))
	for _, symbol := range symbols {
		series, err := s.GetHistory(ctx, symbol, lookbackDays)
		if err != nil {
			return nil, err
		}
		result[symbol] = series
	}
	return result, nil
}

// Refresh re-fetches live history for every cached symbol, updating the
// cache in place. Used by the scheduler; individual failures are logged and
// skipped so one dead symbol does not starve the rest.
func (s *Service) Refresh(ctx context.Context, lookbackDays int) error {
	if s.store == nil {
		return nil
	}

	symbols, err := s.store.Symbols(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, symbol := range symbols {
		series, err := s.fetchLive(ctx, symbol, lookbackDays)
		if err != nil {
			failed++
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh fetch failed")
			continue
		}
		if err := s.store.Upsert(ctx, series); err != nil {
			failed++
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh cache write failed")
		}
	}

	s.log.Info().Int("symbols", len(symbols)).Int("failed", failed).Msg("Price cache refresh complete")
	return nil
}

func (s *Service) fetchLive(ctx context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	if s.live == nil {
		return nil, fmt.Errorf("%w: no live source configured", domain.ErrDataUnavailable)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	series, err := s.live.FetchDailyHistory(fetchCtx, symbol, lookbackDays)
	if err != nil {
		return nil, err
	}
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w: live source returned no data for %s", domain.ErrDataUnavailable, symbol)
	}

	series.Origin = domain.OriginLive
	return series, nil
}
