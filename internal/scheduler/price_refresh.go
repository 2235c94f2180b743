package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/modules/history"
)

// PriceRefreshJob re-fetches live history for every cached symbol so risk
// and forecast requests keep hitting warm data.
type PriceRefreshJob struct {
	log          zerolog.Logger
	historySvc   *history.Service
	lookbackDays int
	timeout      time.Duration
}

// PriceRefreshConfig holds configuration for the price refresh job
type PriceRefreshConfig struct {
	Log          zerolog.Logger
	HistorySvc   *history.Service
	LookbackDays int
	Timeout      time.Duration
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(cfg PriceRefreshConfig) *PriceRefreshJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &PriceRefreshJob{
		log:          cfg.Log.With().Str("job", "price_refresh").Logger(),
		historySvc:   cfg.HistorySvc,
		lookbackDays: cfg.LookbackDays,
		timeout:      timeout,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run refreshes the price cache for all tracked symbols
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.historySvc.Refresh(ctx, j.lookbackDays); err != nil {
		return err
	}

	j.log.Info().Dur("elapsed", time.Since(start)).Msg("Price cache refreshed")
	return nil
}
