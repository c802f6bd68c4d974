package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "COMP_TZ", "GRACE_DAYS", "SYNC_INTERVAL", "EVENT_CHANNEL", "LEADERBOARD_CACHE_TTL", "GARMIN_ENABLED", "GARMIN_BASE_URL"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, "Europe/Bucharest", cfg.Competition.Timezone)
	assert.Equal(t, 2, cfg.Competition.GraceDays)
	assert.Equal(t, "steps.ingest", cfg.Events.Channel)
	assert.Equal(t, 2*time.Second, cfg.Events.PublishTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Devices.SyncInterval)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Devices.GarminEnabled)
	assert.Equal(t, "https://connectapi.garmin.com", cfg.Devices.GarminBaseURL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("DB_PORT", "")
	t.Setenv("GRACE_DAYS", "5")
	t.Setenv("SYNC_ENABLED", "true")
	t.Setenv("SYNC_INTERVAL", "90m")
	t.Setenv("ADMIN_EMAIL", " Boss@Example.com ")
	t.Setenv("GARMIN_ENABLED", "true")
	t.Setenv("GARMIN_BASE_URL", "http://garmin.local/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMySQL, cfg.Store.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, 5, cfg.Competition.GraceDays)
	assert.True(t, cfg.Devices.SyncEnabled)
	assert.Equal(t, 90*time.Minute, cfg.Devices.SyncInterval)
	assert.Equal(t, "boss@example.com", cfg.Auth.AdminEmail)
	assert.True(t, cfg.Devices.GarminEnabled)
	assert.Equal(t, "http://garmin.local", cfg.Devices.GarminBaseURL)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":   "mongo",
		"COMP_TZ":        "Mars/Olympus",
		"GRACE_DAYS":     "-1",
		"SYNC_INTERVAL":  "daily",
		"SYNC_ENABLED":   "maybe",
		"GARMIN_ENABLED": "sometimes",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
