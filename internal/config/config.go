package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string
	// LogFile receives all log output. The terminal itself belongs to the
	// exam UI, so logging to stdout would corrupt the screen.
	LogFile string
	// StatusAddr is the listen address of the local invigilator status
	// server. Empty disables it.
	StatusAddr string
	GinMode    string
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation on
	// the status server. Empty slice means all origins are permitted.
	AllowedOrigins []string
	// RedisURL enables the violation journal when set.
	RedisURL string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL:     strings.TrimRight(getEnv("QS_API_BASE_URL", "http://localhost:8000"), "/"),
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		LogFile:        getEnv("LOG_FILE", "proctor.log"),
		StatusAddr:     getEnv("STATUS_ADDR", ""),
		GinMode:        getEnv("GIN_MODE", "release"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		RedisURL:       getEnv("REDIS_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
