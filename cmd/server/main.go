package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aetherfin/analytics/internal/clients/yahoo"
	"github.com/aetherfin/analytics/internal/config"
	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/modules/forecast"
	"github.com/aetherfin/analytics/internal/modules/history"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/aetherfin/analytics/internal/modules/risk"
	"github.com/aetherfin/analytics/internal/scheduler"
	"github.com/aetherfin/analytics/internal/server"
	"github.com/aetherfin/analytics/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored from the start
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting AetherFin Analytics")

	// Price cache database
	pricesDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/prices.db",
		Profile: database.ProfileCache,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price database")
	}
	defer pricesDB.Close()

	if err := pricesDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate price database")
	}

	// History service: live Yahoo source, sqlite cache, optional synthetic tier
	store := history.NewStore(pricesDB, log)
	historyCfg := history.Config{
		Live:         yahoo.NewClient(log),
		Store:        store,
		FetchTimeout: cfg.FetchTimeout,
	}
	if cfg.SyntheticEnabled {
		historyCfg.Synthetic = &history.SyntheticSource{}
		log.Warn().Msg("Synthetic price fallback enabled, forecasts may run on fabricated data")
	}
	historySvc := history.NewService(historyCfg, log)

	// Analytics core
	builder := returns.NewBuilder(log)
	riskEngine := risk.NewEngine(log)
	forecaster := forecast.New(forecast.Config{
		Cache: forecast.NewCache(forecast.DefaultCacheTTL),
	}, log)

	// Background jobs
	sched := scheduler.New(log)

	refreshJob := scheduler.NewPriceRefreshJob(scheduler.PriceRefreshConfig{
		Log:          log,
		HistorySvc:   historySvc,
		LookbackDays: cfg.LookbackDays,
	})
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price_refresh job")
	}

	maintenanceJob := scheduler.NewMaintenanceJob(scheduler.MaintenanceConfig{
		Log:           log,
		DB:            pricesDB,
		Store:         store,
		RetentionDays: cfg.RetentionDays,
	})
	if err := sched.AddJob("0 0 2 * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:        log,
		DB:         pricesDB,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		HistorySvc: historySvc,
		Builder:    builder,
		RiskEngine: riskEngine,
		Forecaster: forecaster,
		Scheduler:  sched,
		RefreshJob: refreshJob,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
