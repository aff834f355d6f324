/*
Package config resolves server settings.

PRECEDENCE (highest first):
  1. Command-line flags
  2. Environment variables
  3. .env file in the working directory (never overrides the real environment)
  4. Defaults

SETTINGS:
  -port      PORT          HTTP server port (default: 8080)
  -db        DB_PATH       SQLite database path (default: kpi.db, ":memory:" allowed)
  -log-level LOG_LEVEL     debug | info | warn | error (default: info)
  -log-json  LOG_JSON      JSON log output (default: false)
  -weekend   WEEKEND       sat-sun | fri | fri-sat | none (default: sat-sun)
  -cors      CORS_ORIGINS  Comma-separated allowed origins
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/warp/kpi-engine/calendar"
)

type Config struct {
	Port        int
	DBPath      string
	LogLevel    string
	LogJSON     bool
	Weekend     calendar.WeekendPolicy
	CORSOrigins []string
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Load reads .env (if present) and then parses args on top of the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(args, os.Getenv)
}

// Parse resolves settings from args and getenv without touching the process
// environment.
func Parse(args []string, getenv func(string) string) (Config, error) {
	port, err := envInt(getenv, "PORT", 8080)
	if err != nil {
		return Config{}, err
	}

	var (
		cfg     Config
		weekend string
		origins string
	)

	fs := flag.NewFlagSet("kpi-server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", envString(getenv, "DB_PATH", "kpi.db"), "SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", envString(getenv, "LOG_LEVEL", "info"), "Log level")
	fs.BoolVar(&cfg.LogJSON, "log-json", envBool(getenv, "LOG_JSON", false), "JSON log output")
	fs.StringVar(&weekend, "weekend", envString(getenv, "WEEKEND", "sat-sun"), "Non-working weekdays")
	fs.StringVar(&origins, "cors", getenv("CORS_ORIGINS"), "Comma-separated allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Weekend, err = calendar.ParseWeekend(weekend); err != nil {
		return Config{}, err
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultOrigins
	}

	return cfg, nil
}

func envString(getenv func(string) string, name, fallback string) string {
	if v := getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, name string, fallback int) (int, error) {
	raw := getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", name, err)
	}
	return v, nil
}

func envBool(getenv func(string) string, name string, fallback bool) bool {
	switch strings.TrimSpace(strings.ToLower(getenv(name))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
