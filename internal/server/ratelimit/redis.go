package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter, starting the window on first hit,
// and returns {count, remaining ttl in ms}.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`

const redisTimeout = 250 * time.Millisecond

// RedisLimiter enforces per-window request counts shared by all server replicas.
// When Redis is unreachable requests are allowed.
type RedisLimiter struct {
	client *redis.Client
	config *Config
	script *redis.Script
	logger *slog.Logger
}

// NewRedisLimiter creates a limiter backed by client.
func NewRedisLimiter(client *redis.Client, config *Config, logger *slog.Logger) *RedisLimiter {
	if config == nil {
		config = &Config{Enabled: true, DefaultLimit: 1000, DefaultWindow: time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client: client,
		config: config,
		script: redis.NewScript(fixedWindowScript),
		logger: logger,
	}
}

// Allow implements RequestLimiter.
func (l *RedisLimiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	d := l.config.resolve(clientID, endpoint, method)
	if d.done {
		return d.allowed, Info{Allowed: d.allowed}
	}
	if l.client == nil {
		return true, Info{Allowed: true}
	}

	key := d.counterKey(clientID, method)
	if l.config.RedisPrefix != "" {
		key = l.config.RedisPrefix + ":" + key
	}
	window := d.endpoint.Window.Milliseconds()
	if window <= 0 {
		window = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	values, err := l.script.Run(ctx, l.client, []string{key}, window).Int64Slice()
	if err != nil || len(values) != 2 {
		l.logger.Warn("redis rate limit check failed, allowing request", "error", err, "endpoint", endpoint)
		return true, Info{Allowed: true}
	}

	count, ttl := int(values[0]), time.Duration(values[1])*time.Millisecond
	if ttl < 0 {
		ttl = d.endpoint.Window
	}
	allowed := count <= d.endpoint.Limit

	info := Info{
		Allowed:   allowed,
		Limit:     d.endpoint.Limit,
		Remaining: max(d.endpoint.Limit-count, 0),
		ResetTime: time.Now().Add(ttl),
	}
	if !allowed {
		info.RetryAfter = ttl
	}
	return allowed, info
}

// Stop is a no-op; the Redis client is owned by the caller.
func (l *RedisLimiter) Stop() {}
