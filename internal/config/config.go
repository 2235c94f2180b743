package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the price cache database
	Port             int
	LogLevel         string
	DevMode          bool
	LookbackDays     int           // price history window fetched for analyses
	FetchTimeout     time.Duration // upstream fetch timeout
	RefreshSchedule  string        // cron expression for the price cache refresh
	RetentionDays    int           // cached history retention
	SyntheticEnabled bool          // serve synthetic data when all else fails (dev only)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("../data"); err == nil {
			dataDir = "../data"
		} else {
			dataDir = "./data"
		}
	}

	cfg := &Config{
		DataDir:          dataDir,
		Port:             getEnvAsInt("PORT", 8001),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LookbackDays:     getEnvAsInt("LOOKBACK_DAYS", 365),
		FetchTimeout:     time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		RefreshSchedule:  getEnv("REFRESH_SCHEDULE", "0 30 18 * * 1-5"), // weekdays after US close
		RetentionDays:    getEnvAsInt("RETENTION_DAYS", 1825),
		SyntheticEnabled: getEnvAsBool("SYNTHETIC_FALLBACK", false),
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
