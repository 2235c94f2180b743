package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/internal/modules/forecast"
	"github.com/aetherfin/analytics/internal/modules/history"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/aetherfin/analytics/internal/modules/risk"
)

// fakeMarket serves deterministic trending series for any symbol.
type fakeMarket struct{}

func (fakeMarket) FetchDailyHistory(_ context.Context, symbol string, lookbackDays int) (*domain.PriceSeries, error) {
	n := 120
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := float64(len(symbol))
	points := make([]domain.PricePoint, n)
	price := 100.0 + 10*seed
	for i := 0; i < n; i++ {
		price *= 1 + 0.001 + 0.004*math.Sin(float64(i)+seed)
		points[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: price, Volume: 1000}
	}
	return &domain.PriceSeries{Symbol: symbol, Origin: domain.OriginLive, Points: points}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "prices.db"),
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.Nop()
	historySvc := history.NewService(history.Config{
		Live:      fakeMarket{},
		Store:     history.NewStore(db, log),
		RateLimit: rate.Inf,
	}, log)

	return New(Config{
		Log:        log,
		DB:         db,
		Port:       0,
		HistorySvc: historySvc,
		Builder:    returns.NewBuilder(log),
		RiskEngine: risk.NewEngine(log),
		Forecaster: forecast.New(forecast.Config{Cache: forecast.NewCache(time.Hour)}, log),
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t)

	payload := map[string]interface{}{
		"portfolio":          map[string]float64{"AAA": 0.6, "BBBB": 0.4},
		"initial_investment": 10000,
		"num_simulations":    500,
		"time_horizon_days":  30,
	}
	body, _ := json.Marshal(payload)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/risk/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Analysis    *risk.Report                 `json:"analysis"`
		DataOrigins map[string]domain.DataOrigin `json:"data_origins"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Analysis)

	assert.NotEmpty(t, resp.Analysis.AnalysisID)
	assert.GreaterOrEqual(t, resp.Analysis.Metrics.VaR99, resp.Analysis.Metrics.VaR95)
	assert.Equal(t, domain.OriginLive, resp.DataOrigins["AAA"])
	assert.Equal(t, domain.OriginLive, resp.DataOrigins["BBBB"])
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{not json", http.StatusBadRequest},
		{"empty portfolio", `{"portfolio": {}}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/risk/analyze", bytes.NewReader([]byte(tc.body)))
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleForecast(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/forecast/aaa?horizons=1,7", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp forecast.EnsembleForecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The handler upcases the symbol before fetching.
	assert.Equal(t, "AAA", resp.Symbol)
	require.Len(t, resp.Horizons, 2)
	assert.Equal(t, 1, resp.Horizons[0].HorizonDays)
	assert.Equal(t, 7, resp.Horizons[1].HorizonDays)
}

func TestHandleForecast_InvalidHorizons(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/forecast/AAA?horizons=1,zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInvalidate(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/forecast/AAA/invalidate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSystemHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])

	dbInfo, ok := resp["database"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, dbInfo["healthy"])
}

func TestHandleTriggerRefresh_NotRegistered(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/refresh", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
