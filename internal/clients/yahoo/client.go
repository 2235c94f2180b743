package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/aetherfin/analytics/internal/domain"
)

const maxRetries = 3

// Client fetches daily price history from Yahoo Finance.
type Client struct {
	log zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// periodFor maps a lookback in days to the nearest Yahoo period string that
// covers it.
func periodFor(lookbackDays int) string {
	switch {
	case lookbackDays <= 30:
		return "1mo"
	case lookbackDays <= 90:
		return "3mo"
	case lookbackDays <= 180:
		return "6mo"
	case lookbackDays <= 365:
		return "1y"
	case lookbackDays <= 730:
		return "2y"
	case lookbackDays <= 1825:
		return "5y"
	default:
		return "max"
	}
}

// FetchDailyHistory fetches adjusted daily closes for a symbol covering at
// least lookbackDays calendar days. Transient failures are retried with
// exponential backoff; the context only cancels between attempts because the
// underlying library does not accept one.
func (c *Client) FetchDailyHistory(ctx context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	yahooSymbol := strings.ToUpper(strings.TrimSpace(symbol))
	if yahooSymbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrDataUnavailable)
	}

	params := models.HistoryParams{
		Period:     periodFor(lookbackDays),
		Interval:   "1d",
		AutoAdjust: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := c.fetchOnce(yahooSymbol, params)
		if err == nil && len(bars) > 0 {
			return c.toSeries(yahooSymbol, bars), nil
		}
		if err == nil {
			err = fmt.Errorf("empty history for %s", yahooSymbol)
		}
		lastErr = err

		if attempt < maxRetries-1 {
			waitTime := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn().Err(err).Str("symbol", yahooSymbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("History fetch failed, retrying")
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, yahooSymbol, lastErr)
}

func (c *Client) fetchOnce(yahooSymbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(yahooSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}
	return bars, nil
}

func (c *Client) toSeries(symbol string, bars []models.Bar) *domain.PriceSeries {
	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, domain.PricePoint{
			Date:   bar.Date,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		})
	}

	series := &domain.PriceSeries{
		Symbol: symbol,
		Origin: domain.OriginLive,
		Points: points,
	}
	series.Clean()

	c.log.Debug().Str("symbol", symbol).Int("points", series.Len()).Msg("Fetched price history")
	return series
}
