// Package config provides configuration loading and validation for the ATS server.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Defaults applied by MergeWithDefaults when a field is unset.
const (
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultResyncConcurrency = 4
)

// Config is the server configuration. It can be loaded from a JSON file and is
// overlaid with environment variables by FromEnv.
type Config struct {
	DatabaseURL         string      `json:"database_url,omitempty"`          // PostgreSQL connection URL; empty runs the in-memory store
	Port                int         `json:"port,omitempty"`                  // HTTP listen port
	LogLevel            string      `json:"log_level,omitempty"`             // debug, info, warn or error
	RedisURL            string      `json:"redis_url,omitempty"`             // Enables the shared rate limiter when set
	FeedbackSyncEnabled bool        `json:"feedback_sync_enabled,omitempty"` // Propagate client decisions to pipeline status
	DemoAgencyIDs       []uuid.UUID `json:"demo_agency_ids,omitempty"`       // Agencies whose syncs are simulated
	ResyncConcurrency   int         `json:"resync_concurrency,omitempty"`    // Parallel syncs in the resync command
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv overlays environment variables on top of c. Set variables win.
//
//	DATABASE_URL, PORT, LOG_LEVEL, REDIS_URL, FEEDBACK_SYNC_ENABLED,
//	DEMO_AGENCY_IDS (comma-separated), RESYNC_CONCURRENCY
func (c *Config) FromEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %v", err)
		}
		c.Port = port
	}
	if v := os.Getenv("FEEDBACK_SYNC_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FEEDBACK_SYNC_ENABLED: %v", err)
		}
		c.FeedbackSyncEnabled = enabled
	}
	if v := os.Getenv("DEMO_AGENCY_IDS"); v != "" {
		ids, err := ParseAgencyIDs(v)
		if err != nil {
			return fmt.Errorf("invalid DEMO_AGENCY_IDS: %w", err)
		}
		c.DemoAgencyIDs = ids
	}
	if v := os.Getenv("RESYNC_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RESYNC_CONCURRENCY: %v", err)
		}
		c.ResyncConcurrency = n
	}
	return nil
}

// ParseAgencyIDs parses a comma-separated list of UUIDs, ignoring blanks.
func ParseAgencyIDs(value string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if c.ResyncConcurrency < 0 {
		return fmt.Errorf("config error: 'resync_concurrency' must be non-negative")
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults,
// then from the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogLevel == "" {
		result.LogLevel = DefaultLogLevel
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}
	if result.ResyncConcurrency == 0 {
		result.ResyncConcurrency = defaults.ResyncConcurrency
	}
	if result.ResyncConcurrency == 0 {
		result.ResyncConcurrency = DefaultResyncConcurrency
	}
	if len(result.DemoAgencyIDs) == 0 {
		result.DemoAgencyIDs = defaults.DemoAgencyIDs
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// IsDemoAgency reports whether agencyID is configured as a demo tenant.
func (c *Config) IsDemoAgency(agencyID uuid.UUID) bool {
	for _, id := range c.DemoAgencyIDs {
		if id == agencyID {
			return true
		}
	}
	return false
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
