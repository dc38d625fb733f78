package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"database_url": "postgres://ats@localhost/ats",
		"port": 9090,
		"feedback_sync_enabled": true,
		"demo_agency_ids": ["550e8400-e29b-41d4-a716-446655440000"]
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://ats@localhost/ats", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.FeedbackSyncEnabled)
	assert.True(t, cfg.IsDemoAgency(uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")))
	assert.False(t, cfg.IsDemoAgency(uuid.New()))
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestFromEnv(t *testing.T) {
	demo := uuid.New()
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("PORT", "7000")
	t.Setenv("FEEDBACK_SYNC_ENABLED", "true")
	t.Setenv("DEMO_AGENCY_IDS", " "+demo.String()+", ,")
	t.Setenv("RESYNC_CONCURRENCY", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := &Config{DatabaseURL: "postgres://file", Port: 1}
	require.NoError(t, cfg.FromEnv())

	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, 7000, cfg.Port)
	assert.True(t, cfg.FeedbackSyncEnabled)
	assert.Equal(t, []uuid.UUID{demo}, cfg.DemoAgencyIDs)
	assert.Equal(t, 8, cfg.ResyncConcurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "http"},
		{"bad flag", "FEEDBACK_SYNC_ENABLED", "sometimes"},
		{"bad uuid", "DEMO_AGENCY_IDS", "not-a-uuid"},
		{"bad concurrency", "RESYNC_CONCURRENCY", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := &Config{}
			assert.Error(t, cfg.FromEnv())
		})
	}
}

func TestFromEnv_SyncDisabledByDefault(t *testing.T) {
	t.Setenv("FEEDBACK_SYNC_ENABLED", "")
	cfg := &Config{}
	require.NoError(t, cfg.FromEnv())
	assert.False(t, cfg.FeedbackSyncEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero value", Config{}, false},
		{"valid", Config{Port: 8080, LogLevel: "warn", ResyncConcurrency: 2}, false},
		{"negative port", Config{Port: -1}, true},
		{"port too large", Config{Port: 70000}, true},
		{"negative concurrency", Config{ResyncConcurrency: -1}, true},
		{"unknown log level", Config{LogLevel: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{Port: 9000}
	merged := cfg.MergeWithDefaults(Config{DatabaseURL: "postgres://default", Port: 1234})

	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "postgres://default", merged.DatabaseURL)
	assert.Equal(t, DefaultLogLevel, merged.LogLevel)
	assert.Equal(t, DefaultResyncConcurrency, merged.ResyncConcurrency)

	empty := (&Config{}).MergeWithDefaults(Config{})
	assert.Equal(t, DefaultPort, empty.Port)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
