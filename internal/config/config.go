package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration read from the environment
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	// Redis. RedisURL takes precedence over host/port (Upstash style rediss:// URLs).
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// DataDir holds posts.json and comments.json when Redis is not configured
	DataDir string

	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration

	GeminiAPIKey string

	StoreTimeout     time.Duration
	CreateRateLimit  int
	CreateRateWindow time.Duration
	CORSOrigins      []string

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64
}

// Load reads .env (if present) and the process environment.
// JWT_SECRET is required outside development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getenvDefault("PORT", "8787"),
		Environment:       getenvDefault("ENVIRONMENT", "development"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		LogFile:           getenvDefault("LOG_FILE", "server.log"),
		RedisURL:          firstEnv("REDIS_URL", "KV_URL"),
		RedisHost:         os.Getenv("REDIS_HOST"),
		RedisPort:         getenvDefault("REDIS_PORT", "6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		DataDir:           getenvDefault("DATA_DIR", "data"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTokenTTL:     getenvDuration("ADMIN_TOKEN_TTL", 3*time.Hour),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		StoreTimeout:      getenvDuration("STORE_TIMEOUT", 3*time.Second),
		CreateRateLimit:   getenvInt("CREATE_RATE_LIMIT", 10),
		CreateRateWindow:  getenvDuration("CREATE_RATE_WINDOW", time.Minute),
		CORSOrigins:       splitList(getenvDefault("CORS_ORIGINS", "*")),
		OTelEnabled:       getenvBool("OTEL_ENABLED", false),
		OTelEndpoint:      getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate:  getenvFloat("OTEL_SAMPLING_RATE", 1.0),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
		}
		cfg.JWTSecret = "development-secret-key-change-in-production"
	}
	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production")
	}

	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisConfigured reports whether any Redis connection setting was supplied
func (c *Config) RedisConfigured() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getenvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
