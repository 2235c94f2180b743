package domain

import (
	"sort"
	"time"
)

// DataOrigin describes where a price series came from. Consumers must never
// be silently handed fabricated numbers, so the origin travels with the data.
type DataOrigin string

const (
	OriginLive      DataOrigin = "live"
	OriginStale     DataOrigin = "stale"
	OriginSynthetic DataOrigin = "synthetic"
)

// PricePoint is a single daily observation for one instrument.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered daily price history for one instrument.
// Timestamps are strictly increasing and all closes are positive once the
// series has passed through Clean.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Origin DataOrigin   `json:"data_source"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	return len(s.Points)
}

// Closes returns the closing prices in date order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s *PriceSeries) LastClose() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Clean sorts the series by date, drops duplicate dates (keeping the latest
// observation for each day) and removes non-positive or missing closes.
// Upstream sources occasionally return out-of-order or repeated rows.
func (s *PriceSeries) Clean() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Date.Before(s.Points[j].Date)
	})

	cleaned := make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Close <= 0 {
			continue
		}
		day := p.Date.Truncate(24 * time.Hour)
		if n := len(cleaned); n > 0 && cleaned[n-1].Date.Equal(day) {
			cleaned[n-1] = PricePoint{Date: day, Close: p.Close, Volume: p.Volume}
			continue
		}
		cleaned = append(cleaned, PricePoint{Date: day, Close: p.Close, Volume: p.Volume})
	}
	s.Points = cleaned
}
