package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	Migrate     bool
	RedisURL    string

	// Image uploads go to GCS when a bucket is set, inline data URLs otherwise
	GCSBucket      string
	GCPCredentials string
	GCPProjectID   string

	MDNSEnabled   bool
	SyncDebounce  time.Duration
	PublicBaseURL string
}

// Load reads configuration from environment variables, with a .env file
// filling in anything unset.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DB_URL"),
		Migrate:        getBool("MIGRATE", false),
		RedisURL:       os.Getenv("REDIS_URL"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		GCPCredentials: os.Getenv("GCP_SERVICE_ACCOUNT_CREDENTIALS"),
		GCPProjectID:   os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		MDNSEnabled:    getBool("MDNS_ENABLED", false),
		SyncDebounce:   getDuration("SYNC_DEBOUNCE", 300*time.Millisecond),
	}
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port)

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		panic("DB_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
