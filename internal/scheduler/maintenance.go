package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/modules/history"
)

// MaintenanceJob prunes expired price rows and checkpoints the WAL so the
// cache database does not grow without bound.
type MaintenanceJob struct {
	log           zerolog.Logger
	db            *database.DB
	store         *history.Store
	retentionDays int
}

// MaintenanceConfig holds configuration for the maintenance job
type MaintenanceConfig struct {
	Log           zerolog.Logger
	DB            *database.DB
	Store         *history.Store
	RetentionDays int
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(cfg MaintenanceConfig) *MaintenanceJob {
	retention := cfg.RetentionDays
	if retention <= 0 {
		retention = 1825 // five years
	}
	return &MaintenanceJob{
		log:           cfg.Log.With().Str("job", "maintenance").Logger(),
		db:            cfg.DB,
		store:         cfg.Store,
		retentionDays: retention,
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run prunes old history and checkpoints the WAL
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := j.store.Prune(ctx, j.retentionDays)
	if err != nil {
		return err
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	stats, err := j.db.GetStats()
	if err != nil {
		return err
	}

	j.log.Info().
		Int64("pruned", deleted).
		Int64("db_bytes", stats.SizeBytes).
		Int64("wal_bytes", stats.WALSizeBytes).
		Msg("Database maintenance complete")
	return nil
}
