package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/modules/forecast"
	"github.com/aetherfin/analytics/internal/modules/history"
)

// ForecastHandlers serves price forecast requests.
type ForecastHandlers struct {
	log        zerolog.Logger
	historySvc *history.Service
	forecaster *forecast.Forecaster
}

// NewForecastHandlers creates forecast handlers
func NewForecastHandlers(log zerolog.Logger, historySvc *history.Service, forecaster *forecast.Forecaster) *ForecastHandlers {
	return &ForecastHandlers{
		log:        log.With().Str("component", "forecast_handlers").Logger(),
		historySvc: historySvc,
		forecaster: forecaster,
	}
}

// HandleForecast generates an ensemble forecast for one symbol
// GET /api/forecast/{symbol}?horizons=1,7,30&lookback_days=365
func (h *ForecastHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	opts := forecast.DefaultOptions()
	if raw := r.URL.Query().Get("horizons"); raw != "" {
		horizons, err := parseHorizons(raw)
		if err != nil {
			writeJSON(h.log, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		opts.Horizons = horizons
	}

	lookback := 365
	if raw := r.URL.Query().Get("lookback_days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			lookback = v
		}
	}

	series, err := h.historySvc.GetHistory(r.Context(), symbol, lookback)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	result, err := h.forecaster.Forecast(r.Context(), series, opts)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	writeJSON(h.log, w, http.StatusOK, result)
}

// HandleInvalidate drops cached forecasts for a symbol
// POST /api/forecast/{symbol}/invalidate
func (h *ForecastHandlers) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	h.forecaster.InvalidateCache(symbol)
	h.log.Info().Str("symbol", symbol).Msg("Forecast cache invalidated")

	writeJSON(h.log, w, http.StatusOK, map[string]string{"status": "ok", "symbol": symbol})
}

func parseHorizons(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	horizons := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid horizons parameter %q", raw)
		}
		horizons = append(horizons, v)
	}
	return horizons, nil
}
