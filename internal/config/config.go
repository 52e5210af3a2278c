package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// DB
	DatabaseURL string
	Backend     string // "postgres" (all-relational) or "hybrid" (sqlite + volatile presence)

	// Tokens
	Issuer     string
	SigningKey string

	// Mail
	SMTPAddress string
	FromAddress string

	// HTTP / UDP
	Addr    string
	UDPAddr string

	// Sweeps
	SweepInterval time.Duration
}

// Load reads .env (when present) then the environment. Missing required
// values are fatal at startup, never a runtime error.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using environment")
	}

	return Config{
		DatabaseURL: must("DATABASE_URL"),
		Backend:     getenv("BACKEND", "postgres"),

		Issuer:     getenv("ISSUER", "carlink"),
		SigningKey: must("JWT_SECRET"),

		SMTPAddress: getenv("SMTP_ADDRESS", "127.0.0.1:25"),
		FromAddress: must("FROM_ADDRESS"),

		Addr:    getenv("ADDR", ":8080"),
		UDPAddr: getenv("UDP_ADDR", ":8081"),

		SweepInterval: getdur("SWEEP_INTERVAL", 30*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing required env", "key", k)
		os.Exit(1)
	}
	return v
}
