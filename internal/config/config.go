package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	Env             string
	HTTPAddr        string
	BackendURL      string
	BackendTimeout  time.Duration
	DBConnString    string
	ShutdownTimeout time.Duration
	CatalogCSV      string

	ClearCartOnLogout bool
	WorkspaceIdleTTL  time.Duration
	CookieSecure      bool
	CORSOrigins       []string

	AuthRatePerSecond float64
	AuthRateBurst     int

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then builds Config from the
// environment. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

// FromEnv builds Config with defaults, overridden by environment variables.
// An empty DB_DSN keeps workspaces and orders in memory.
func FromEnv() Config {
	return Config{
		Env:               envOrDefault("APP_ENV", "development"),
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		BackendURL:        envOrDefault("BACKEND_URL", "http://localhost:8000/api/"),
		BackendTimeout:    envDuration("BACKEND_TIMEOUT_SECONDS", 15*time.Second),
		DBConnString:      os.Getenv("DB_DSN"),
		ShutdownTimeout:   envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		CatalogCSV:        os.Getenv("CATALOG_CSV"),
		ClearCartOnLogout: envBool("CART_CLEAR_ON_LOGOUT", true),
		WorkspaceIdleTTL:  time.Duration(envInt("WORKSPACE_IDLE_TTL_MINUTES", 120)) * time.Minute,
		CookieSecure:      envBool("COOKIE_SECURE", false),
		CORSOrigins:       envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		AuthRatePerSecond: envFloat("AUTH_RATE_PER_SECOND", 1),
		AuthRateBurst:     envInt("AUTH_RATE_BURST", 5),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
