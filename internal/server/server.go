package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/internal/modules/forecast"
	"github.com/aetherfin/analytics/internal/modules/history"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/aetherfin/analytics/internal/modules/risk"
	"github.com/aetherfin/analytics/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	DB         *database.DB
	Port       int
	DevMode    bool
	HistorySvc *history.Service
	Builder    *returns.Builder
	RiskEngine *risk.Engine
	Forecaster *forecast.Forecaster
	Scheduler  *scheduler.Scheduler
	RefreshJob scheduler.Job
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	riskHandlers   *RiskHandlers
	fcastHandlers  *ForecastHandlers
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		db:             cfg.DB,
		riskHandlers:   NewRiskHandlers(cfg.Log, cfg.HistorySvc, cfg.Builder, cfg.RiskEngine),
		fcastHandlers:  NewForecastHandlers(cfg.Log, cfg.HistorySvc, cfg.Forecaster),
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DB, cfg.Scheduler, cfg.RefreshJob),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // simulations can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(90 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/risk/analyze", s.riskHandlers.HandleAnalyze)
		r.Get("/forecast/{symbol}", s.fcastHandlers.HandleForecast)
		r.Post("/forecast/{symbol}/invalidate", s.fcastHandlers.HandleInvalidate)

		r.Get("/system/health", s.systemHandlers.HandleSystemHealth)
		r.Post("/jobs/refresh", s.systemHandlers.HandleTriggerRefresh)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "aetherfin-analytics",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(s.log, w, status, data)
}

func writeJSON(log zerolog.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(log zerolog.Logger, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrNumericalInstability),
		errors.Is(err, domain.ErrModelFit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDataUnavailable):
		status = http.StatusBadGateway
	}

	writeJSON(log, w, status, map[string]string{"error": err.Error()})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
