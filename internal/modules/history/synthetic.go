package history

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/aetherfin/analytics/internal/domain"
)

// SyntheticSource generates a deterministic random-walk price series. It is
// a development and demo fallback; production deployments leave it unset so
// the service fails loudly instead of inventing prices.
type SyntheticSource struct {
	// StartPrice is the walk's starting level; zero means 100.
	StartPrice float64
}

// FetchDailyHistory generates lookbackDays of daily prices seeded by the
// symbol, so the same symbol always yields the same series.
func (s *SyntheticSource) FetchDailyHistory(_ context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	start := s.StartPrice
	if start <= 0 {
		start = 100
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]domain.PricePoint, 0, lookbackDays)
	price := start
	for i := lookbackDays - 1; i >= 0; i-- {
		// Mild drift with daily noise, floored well above zero.
		price *= 1 + 0.0003 + 0.015*rng.NormFloat64()
		if price < 0.01 {
			price = 0.01
		}
		points = append(points, domain.PricePoint{
			Date:   today.AddDate(0, 0, -i),
			Close:  price,
			Volume: float64(1000 + rng.IntN(9000)),
		})
	}

	return &domain.PriceSeries{
		Symbol: symbol,
		Origin: domain.OriginSynthetic,
		Points: points,
	}, nil
}
