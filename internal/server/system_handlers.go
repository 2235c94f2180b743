package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aetherfin/analytics/internal/database"
	"github.com/aetherfin/analytics/internal/scheduler"
)

// SystemHandlers serves system monitoring endpoints.
type SystemHandlers struct {
	log        zerolog.Logger
	db         *database.DB
	scheduler  *scheduler.Scheduler
	refreshJob scheduler.Job
	startedAt  time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, db *database.DB, sched *scheduler.Scheduler, refreshJob scheduler.Job) *SystemHandlers {
	return &SystemHandlers{
		log:        log.With().Str("component", "system_handlers").Logger(),
		db:         db,
		scheduler:  sched,
		refreshJob: refreshJob,
		startedAt:  time.Now(),
	}
}

// systemHealthResponse is the body of GET /api/system/health.
type systemHealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Database      struct {
		Healthy      bool  `json:"healthy"`
		SizeBytes    int64 `json:"size_bytes"`
		WALSizeBytes int64 `json:"wal_size_bytes"`
	} `json:"database"`
}

// HandleSystemHealth reports process and database health
// GET /api/system/health
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	resp := systemHealthResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	cpuPercent, ramPercent := h.getSystemStats()
	resp.CPUPercent = cpuPercent
	resp.RAMPercent = ramPercent

	if h.db != nil {
		resp.Database.Healthy = h.db.QuickCheck(r.Context()) == nil
		if stats, err := h.db.GetStats(); err == nil {
			resp.Database.SizeBytes = stats.SizeBytes
			resp.Database.WALSizeBytes = stats.WALSizeBytes
		}
		if !resp.Database.Healthy {
			resp.Status = "degraded"
		}
	}

	writeJSON(h.log, w, http.StatusOK, resp)
}

// HandleTriggerRefresh runs the price cache refresh immediately
// POST /api/jobs/refresh
func (h *SystemHandlers) HandleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refreshJob == nil || h.scheduler == nil {
		writeJSON(h.log, w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "refresh job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual price refresh triggered")
	if err := h.scheduler.RunNow(h.refreshJob); err != nil {
		writeError(h.log, w, err)
		return
	}

	writeJSON(h.log, w, http.StatusOK, map[string]string{"status": "ok"})
}

// getSystemStats calculates CPU and RAM usage percentages. A short sampling
// interval keeps the endpoint responsive for poll-based monitors.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
