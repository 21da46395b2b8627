package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "MIGRATE", "SYNC_DEBOUNCE", "PUBLIC_BASE_URL", "MDNS_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Migrate)
	assert.False(t, cfg.MDNSEnabled)
	assert.Equal(t, 300*time.Millisecond, cfg.SyncDebounce)
	assert.Equal(t, "http://localhost:3000", cfg.PublicBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MIGRATE", "true")
	t.Setenv("MDNS_ENABLED", "1")
	t.Setenv("SYNC_DEBOUNCE", "1s")
	t.Setenv("PUBLIC_BASE_URL", "https://boards.example.com")
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Migrate)
	assert.True(t, cfg.MDNSEnabled)
	assert.Equal(t, time.Second, cfg.SyncDebounce)
	assert.Equal(t, "https://boards.example.com", cfg.PublicBaseURL)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MIGRATE", "sometimes")
	t.Setenv("SYNC_DEBOUNCE", "-5s")
	cfg := Load()

	assert.False(t, cfg.Migrate)
	assert.Equal(t, 300*time.Millisecond, cfg.SyncDebounce)
}

func TestProductionNeedsDatabase(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_URL", "")
	assert.Panics(t, func() { Load() })
}
