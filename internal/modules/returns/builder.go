package returns

import (
	"fmt"
	"math"
	"sort"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/pkg/formulas"
	"github.com/rs/zerolog"
)

// Constants for return series construction
const (
	MinObservations = 30 // minimum price history per instrument
	MinReturnRows   = 2  // minimum usable days of returns overall
)

// Builder converts raw per-instrument price histories into a clean, aligned
// return matrix suitable for covariance estimation.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new return series builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "return_builder").Logger(),
	}
}

// Build aligns and cleans price histories into a return matrix.
//
// Instruments with fewer than MinObservations points are silently dropped;
// zero-variance columns (constant price, typically bad data) are dropped
// after return calculation. Surviving weights are renormalized to sum to 1.0
// preserving their original relative proportions. When weights is empty all
// provided instruments get equal weight.
func (b *Builder) Build(series map[string]*domain.PriceSeries, weights map[string]float64) (*Matrix, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no instruments provided", domain.ErrInsufficientData)
	}

	symbols := make([]string, 0, len(series))
	for sym := range series {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	if len(weights) == 0 {
		weights = make(map[string]float64, len(symbols))
		for _, sym := range symbols {
			weights[sym] = 1.0 / float64(len(symbols))
		}
	}

	// 1. Drop instruments with insufficient history.
	usable := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		s := series[sym]
		if s == nil || s.Len() < MinObservations {
			b.log.Debug().
				Str("symbol", sym).
				Int("observations", seriesLen(s)).
				Msg("Dropping instrument with insufficient history")
			continue
		}
		usable = append(usable, sym)
	}

	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no instruments with at least %d observations", domain.ErrInsufficientData, MinObservations)
	}

	// 2. Align to the shortest available series (most-recent-N alignment).
	minLen := series[usable[0]].Len()
	for _, sym := range usable[1:] {
		if n := series[sym].Len(); n < minLen {
			minLen = n
		}
	}

	prices := make(map[string][]float64, len(usable))
	for _, sym := range usable {
		closes := series[sym].Closes()
		prices[sym] = closes[len(closes)-minLen:]
	}

	// 3. Forward-fill interior gaps, then drop rows still missing a value.
	for _, sym := range usable {
		forwardFill(prices[sym])
	}
	prices, minLen = dropIncompleteRows(prices, usable, minLen)

	if minLen < MinReturnRows+1 {
		return nil, fmt.Errorf("%w: only %d overlapping days after cleaning", domain.ErrInsufficientData, minLen)
	}

	// 4. Simple daily percentage returns.
	columns := make(map[string][]float64, len(usable))
	for _, sym := range usable {
		columns[sym] = dailyReturns(prices[sym])
	}

	// 5. Drop zero-variance columns and renormalize weights.
	survivors := make([]string, 0, len(usable))
	for _, sym := range usable {
		if formulas.Variance(columns[sym]) == 0 {
			b.log.Warn().
				Str("symbol", sym).
				Msg("Dropping instrument with zero return variance")
			continue
		}
		survivors = append(survivors, sym)
	}

	if len(survivors) == 0 {
		return nil, fmt.Errorf("%w: no instruments with price variation", domain.ErrInsufficientData)
	}

	finalWeights, err := renormalizeWeights(weights, survivors)
	if err != nil {
		return nil, err
	}

	numDays := len(columns[survivors[0]])
	matrix := make([][]float64, numDays)
	for t := 0; t < numDays; t++ {
		row := make([]float64, len(survivors))
		for i, sym := range survivors {
			row[i] = columns[sym][t]
		}
		matrix[t] = row
	}

	b.log.Info().
		Int("instruments", len(survivors)).
		Int("dropped", len(series)-len(survivors)).
		Int("days", numDays).
		Msg("Built aligned return matrix")

	return &Matrix{
		Symbols: survivors,
		Weights: finalWeights,
		Returns: matrix,
	}, nil
}

func seriesLen(s *domain.PriceSeries) int {
	if s == nil {
		return 0
	}
	return s.Len()
}

// forwardFill replaces NaN entries with the previous valid value.
// Leading NaNs are left in place and removed by dropIncompleteRows.
func forwardFill(prices []float64) {
	var lastValid float64
	hasLastValid := false

	for i := range prices {
		if math.IsNaN(prices[i]) {
			if hasLastValid {
				prices[i] = lastValid
			}
		} else {
			lastValid = prices[i]
			hasLastValid = true
		}
	}
}

// dropIncompleteRows removes any row where at least one instrument still has
// a missing value after forward-filling.
func dropIncompleteRows(prices map[string][]float64, symbols []string, length int) (map[string][]float64, int) {
	keep := make([]bool, length)
	kept := 0
	for t := 0; t < length; t++ {
		complete := true
		for _, sym := range symbols {
			if math.IsNaN(prices[sym][t]) {
				complete = false
				break
			}
		}
		keep[t] = complete
		if complete {
			kept++
		}
	}

	if kept == length {
		return prices, length
	}

	out := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		col := make([]float64, 0, kept)
		for t := 0; t < length; t++ {
			if keep[t] {
				col = append(col, prices[sym][t])
			}
		}
		out[sym] = col
	}
	return out, kept
}

// dailyReturns calculates simple percentage returns from prices.
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 {
			out[i-1] = prices[i]/prices[i-1] - 1
		}
	}
	return out
}

// renormalizeWeights rescales the surviving instruments' weights to sum to
// 1.0 while preserving their relative proportions from the original vector.
func renormalizeWeights(weights map[string]float64, survivors []string) ([]float64, error) {
	out := make([]float64, len(survivors))
	total := 0.0
	for i, sym := range survivors {
		w := weights[sym]
		if w < 0 {
			return nil, fmt.Errorf("negative weight %f for %s", w, sym)
		}
		out[i] = w
		total += w
	}

	if total <= 0 {
		// None of the survivors carried weight; fall back to equal split.
		for i := range out {
			out[i] = 1.0 / float64(len(out))
		}
		return out, nil
	}

	for i := range out {
		out[i] /= total
	}
	return out, nil
}
