// Package logging builds the process-wide structured logger: JSON records on
// stdout, every line tagged with the service name and environment.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	ServiceName string
	Environment string // empty means "dev"
	Level       string // debug, info, warn or error; empty means info
}

// ParseLevel maps a LOG_LEVEL value onto a slog level. Unknown values fall
// back to info rather than failing startup.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the logger main installs with slog.SetDefault.
func NewLogger(cfg Config) *slog.Logger {
	env := cfg.Environment
	if env == "" {
		env = "dev"
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	return slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("env", env),
	)
}
