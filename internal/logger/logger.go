package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/config"
)

// New creates a zerolog.Logger configured for the API service.
func New(cfg *config.Config) zerolog.Logger {
	var output io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	if cfg.Server.LogJSON {
		output = os.Stdout
	}
	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", cfg.Server.Name).
		Str("environment", cfg.Server.Env).
		Logger().
		Level(parseLevel(cfg.Server.LogLevel))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
