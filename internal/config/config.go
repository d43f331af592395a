package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	// Storage backend: "postgres" or "memory"
	StorageBackend string
	// Identity provider
	AuthJWKSURL  string
	AuthIssuer   string
	AuthAudience string
	// Document cache (disabled when RedisURL is empty)
	RedisURL string
	CacheTTL time.Duration
	// Cover image object storage (no-op when empty)
	GCSBucket string
	// Cascade worker
	CascadeWorkers      int
	CascadePollInterval time.Duration
	CascadeMaxAttempts  int
	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         env,
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSOrigins:         getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:         getTablePrefix(env),
		StorageBackend:      getEnv("STORAGE_BACKEND", "postgres"),
		AuthJWKSURL:         getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:          getEnv("AUTH_ISSUER", ""),
		AuthAudience:        getEnv("AUTH_AUDIENCE", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		CacheTTL:            getDuration("CACHE_TTL", 5*time.Minute),
		GCSBucket:           getEnv("GCS_BUCKET", ""),
		CascadeWorkers:      getInt("CASCADE_WORKERS", 4),
		CascadePollInterval: getDuration("CASCADE_POLL_INTERVAL", 5*time.Second),
		CascadeMaxAttempts:  getInt("CASCADE_MAX_ATTEMPTS", 10),
		LogDir:              getEnv("LOG_DIR", ""),
		LogMaxFiles:         getInt("LOG_MAX_FILES", 10),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt falls back to defaultValue when the variable is unset or not a positive integer
func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// getDuration parses Go duration syntax ("30s", "5m")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
