package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/internal/modules/history"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/aetherfin/analytics/internal/modules/risk"
)

// RiskHandlers serves portfolio risk analysis requests.
type RiskHandlers struct {
	log        zerolog.Logger
	historySvc *history.Service
	builder    *returns.Builder
	engine     *risk.Engine
}

// NewRiskHandlers creates risk analysis handlers
func NewRiskHandlers(log zerolog.Logger, historySvc *history.Service, builder *returns.Builder, engine *risk.Engine) *RiskHandlers {
	return &RiskHandlers{
		log:        log.With().Str("component", "risk_handlers").Logger(),
		historySvc: historySvc,
		builder:    builder,
		engine:     engine,
	}
}

// riskAnalyzeRequest is the request body for POST /api/risk/analyze.
// Portfolio maps symbols to weights; all-zero weights mean an equal split.
// Unset numeric parameters fall back to the canonical defaults.
type riskAnalyzeRequest struct {
	Portfolio    map[string]float64 `json:"portfolio"`
	Investment   float64            `json:"initial_investment"`
	Simulations  int                `json:"num_simulations"`
	HorizonDays  int                `json:"time_horizon_days"`
	RiskFreeRate float64            `json:"risk_free_rate"`
	LookbackDays int                `json:"lookback_days"`
}

// riskAnalyzeResponse wraps the report with the origin of each price series,
// so clients can tell when an analysis ran on stale or synthetic data.
type riskAnalyzeResponse struct {
	Analysis    *risk.Report                 `json:"analysis"`
	DataOrigins map[string]domain.DataOrigin `json:"data_origins"`
}

// HandleAnalyze runs a Monte Carlo risk analysis for a portfolio
// POST /api/risk/analyze
func (h *RiskHandlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req riskAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(h.log, w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	if len(req.Portfolio) == 0 {
		writeJSON(h.log, w, http.StatusBadRequest, map[string]string{"error": "portfolio must contain at least one symbol"})
		return
	}

	symbols := make([]string, 0, len(req.Portfolio))
	for symbol := range req.Portfolio {
		symbols = append(symbols, symbol)
	}

	lookback := req.LookbackDays
	if lookback <= 0 {
		lookback = 365
	}

	series, err := h.historySvc.GetPortfolioHistory(r.Context(), symbols, lookback)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	matrix, err := h.builder.Build(series, req.Portfolio)
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	report, err := h.engine.Analyze(matrix, risk.Request{
		Investment:   req.Investment,
		Simulations:  req.Simulations,
		HorizonDays:  req.HorizonDays,
		RiskFreeRate: req.RiskFreeRate,
	})
	if err != nil {
		writeError(h.log, w, err)
		return
	}

	origins := make(map[string]domain.DataOrigin, len(series))
	for symbol, s := range series {
		origins[symbol] = s.Origin
	}

	h.log.Info().
		Str("analysis_id", report.AnalysisID).
		Int("instruments", len(matrix.Symbols)).
		Msg("Risk analysis complete")

	writeJSON(h.log, w, http.StatusOK, riskAnalyzeResponse{
		Analysis:    report,
		DataOrigins: origins,
	})
}
