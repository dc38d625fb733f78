package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
	// RedisPrefix namespaces counters when the Redis limiter is used.
	RedisPrefix string
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	defaultLimit := envOr("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi)
	defaultWindow := envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration)
	cleanupInterval := envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration)

	whitelist := parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	blacklist := parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))

	endpoints := DefaultEndpointConfigs()
	feedbackLimit := envOr("RATE_LIMIT_FEEDBACK_LIMIT", 0, strconv.Atoi)
	for i := range endpoints {
		if feedbackLimit > 0 && endpoints[i].Path == "/share/" && endpoints[i].Method == "POST" {
			endpoints[i].Limit = feedbackLimit
		}
	}

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       whitelist,
		Blacklist:       blacklist,
		EndpointConfigs: endpoints,
		RedisPrefix:     envOr("RATE_LIMIT_REDIS_PREFIX", "ats:ratelimit", asString),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Public share links: anonymous callers, strictest limits
		{Path: "/share/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/share/", Method: "GET", Limit: 120, Window: time.Minute, Burst: 20},

		// Agency writes
		{Path: "/shortlists", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/applications", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},

		// Agency reads are handled by the default limit
		// Health check (unlimited) is handled by a special case in the matcher
	}
}

// envOr parses the environment variable key with parse, falling back to
// defaultValue when it is unset or malformed.
func envOr[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func asString(v string) (string, error) { return v, nil }

// parseIPList turns a comma-separated address list into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for ip := range strings.SplitSeq(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
