package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/domain"
)

const dateLayout = "2006-01-02"

// Store persists daily price history in the local SQLite cache.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// NewStore creates a new price history store.
func NewStore(db *database.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// Upsert writes all points of a series, replacing existing rows for the same
// symbol and date.
func (s *Store) Upsert(ctx context.Context, series *domain.PriceSeries) error {
	if series == nil || series.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_prices (symbol, date, close, volume, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close = excluded.close,
			volume = excluded.volume,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, p := range series.Points {
		if _, err := stmt.ExecContext(ctx, series.Symbol, p.Date.Format(dateLayout), p.Close, p.Volume, fetchedAt); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", series.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	s.log.Debug().Str("symbol", series.Symbol).Int("points", series.Len()).Msg("Cached price history")
	return nil
}

// Load reads the cached series for a symbol covering the lookback window.
// The returned series is flagged as stale; cached data is by definition not
// fresh. Returns ErrDataUnavailable when nothing is cached.
func (s *Store) Load(ctx context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays).Format(dateLayout)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close, volume
		FROM daily_prices
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC
	`, symbol, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var dateStr string
		var closePrice float64
		var volume sql.NullFloat64

		if err := rows.Scan(&dateStr, &closePrice, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cached date %q: %w", dateStr, err)
		}

		points = append(points, domain.PricePoint{
			Date:   date,
			Close:  closePrice,
			Volume: volume.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no cached history for %s", domain.ErrDataUnavailable, symbol)
	}

	series := &domain.PriceSeries{
		Symbol: symbol,
		Origin: domain.OriginStale,
		Points: points,
	}
	series.Clean()
	return series, nil
}

// Symbols returns every symbol with cached history.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query cached symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// Prune deletes rows older than the retention window across all symbols.
func (s *Store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(dateLayout)

	res, err := s.db.ExecContext(ctx, "DELETE FROM daily_prices WHERE date < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune daily prices: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		s.log.Info().Int64("rows", deleted).Str("cutoff", cutoff).Msg("Pruned old price history")
	}
	return deleted, nil
}
