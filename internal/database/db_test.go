package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "prices.db"),
		Profile: ProfileCache,
		Name:    "prices",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

func TestNew_CreatesDirectoryAndConnects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prices.db")

	db, err := New(Config{Path: path, Name: "prices"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.QuickCheck(context.Background()))
	assert.Equal(t, "prices", db.Name())
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Running the schema twice must not fail.
	require.NoError(t, db.Migrate())

	_, err := db.ExecContext(context.Background(),
		"INSERT INTO daily_prices (symbol, date, close, volume, fetched_at) VALUES (?, ?, ?, ?, ?)",
		"AAA", "2024-01-02", 100.5, 1000.0, "2024-01-02T18:00:00Z")
	assert.NoError(t, err)

	// Primary key upsert target exists.
	_, err = db.ExecContext(context.Background(),
		"INSERT INTO daily_prices (symbol, date, close, volume, fetched_at) VALUES (?, ?, ?, ?, ?) "+
			"ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close",
		"AAA", "2024-01-02", 101.0, 1000.0, "2024-01-02T19:00:00Z")
	assert.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.PageCount, int64(0))
}
