package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls the root logger for the process.
type Config struct {
	Level  string // debug, info, warn, error; anything else means info
	Pretty bool   // human-readable console output instead of JSON
}

// New builds the root structured logger. Component loggers are derived
// from it with a "component" field.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).With().Timestamp().Caller().Logger()
}

// SetGlobalLogger replaces the zerolog package-level logger so that
// libraries logging through zerolog/log share the same output.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
