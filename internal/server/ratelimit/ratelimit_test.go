package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := newTokenBucket(10, 1.0) // 10 tokens, 1 token per second

	// Should allow 10 requests immediately (burst)
	for i := 0; i < 10; i++ {
		if !bucket.allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	if bucket.allow() {
		t.Error("Expected 11th request to be denied")
	}
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		bucket.allow()
	}

	// Wait for 1 token to refill
	time.Sleep(1100 * time.Millisecond)

	if !bucket.allow() {
		t.Error("Expected request to be allowed after refill")
	}
	if bucket.allow() {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 4; i++ {
		bucket.allow()
	}

	allowed, remaining, resetTime := bucket.take()
	if !allowed {
		t.Error("Expected fifth request to be allowed")
	}
	if remaining != 5 {
		t.Errorf("Expected 5 remaining tokens, got %d", remaining)
	}
	if !resetTime.After(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/shortlists/abc", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/shortlists/abc", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", info.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
	if allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", info.Limit)
		}
	}
}

func TestLimiter_ShareLinksShareOneBudget(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	clientID := "203.0.113.7"

	// Burst of 10, spread across distinct share tokens
	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow(clientID, fmt.Sprintf("/share/token-%d/feedback", i), "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 30 {
			t.Errorf("Expected limit 30, got %d", info.Limit)
		}
	}
	if allowed, _ := limiter.Allow(clientID, "/share/fresh-token/feedback", "POST"); allowed {
		t.Error("Expected a new token to draw from the exhausted budget")
	}

	// Another client is unaffected
	if allowed, _ := limiter.Allow("198.51.100.1", "/share/token-0/feedback", "POST"); !allowed {
		t.Error("Expected a different client to be allowed")
	}

	// Reads use the GET tier
	if allowed, info := limiter.Allow(clientID, "/share/token-0", "GET"); !allowed || info.Limit != 120 {
		t.Errorf("Expected GET to be allowed with limit 120, got allowed=%v limit=%d", allowed, info.Limit)
	}

	limiter.mu.RLock()
	buckets := len(limiter.buckets)
	limiter.mu.RUnlock()
	if buckets != 3 {
		t.Errorf("Expected 3 buckets, got %d", buckets)
	}
}

func TestLimiter_UnmatchedPathsShareDefaultBudget(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	limiter.Allow("127.0.0.1", "/shortlists/a", "GET")
	limiter.Allow("127.0.0.1", "/shortlists/b", "GET")
	if allowed, _ := limiter.Allow("127.0.0.1", "/applications/c", "GET"); allowed {
		t.Error("Expected unmatched paths to share the default budget")
	}
}

func TestDecision_CounterKeyOmitsPath(t *testing.T) {
	d := decision{endpoint: &EndpointConfig{Path: "/share/", Limit: 1, Window: time.Minute}}
	if got := d.counterKey("10.0.0.1", "POST"); got != "10.0.0.1:/share/:POST" {
		t.Errorf("unexpected key %q", got)
	}

	d = decision{endpoint: &EndpointConfig{Limit: 1, Window: time.Minute}}
	if got := d.counterKey("10.0.0.1", "GET"); got != "10.0.0.1:*:GET" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	allowedCount := 0
	var mu sync.Mutex

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET")
			if allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}

	limiter.cleanupBuckets(time.Now().Add(time.Second))

	limiter.mu.RLock()
	remaining := len(limiter.buckets)
	limiter.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("Expected all buckets to be removed, %d left", remaining)
	}

	limiter.Allow("127.0.0.1", "/test", "GET")
	limiter.cleanupBuckets(time.Now().Add(-time.Hour))

	limiter.mu.RLock()
	remaining = len(limiter.buckets)
	limiter.mu.RUnlock()
	if remaining != 1 {
		t.Errorf("Expected recently used bucket to survive, %d left", remaining)
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{"/health", "GET", 0, false},
		{"/share/abc/feedback", "POST", 30, false},
		{"/share/abc/feedback", "GET", 120, false},
		{"/shortlists", "POST", 60, false},
		{"/applications", "POST", 300, false},
		{"/shortlists/abc", "GET", 0, true},
	}
	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantNil {
			if got != nil {
				t.Errorf("%s %s: expected no match, got %+v", tt.method, tt.path, got)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s %s: expected a match", tt.method, tt.path)
			continue
		}
		if got.Limit != tt.wantLimit {
			t.Errorf("%s %s: expected limit %d, got %d", tt.method, tt.path, tt.wantLimit, got.Limit)
		}
	}
}

func TestMatchEndpoint_Precedence(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/share/", Method: "", Limit: 10, Window: time.Minute},
		{Path: "/share/special/", Method: "POST", Limit: 20, Window: time.Minute},
		{Path: "/share/special/feedback", Method: "POST", Limit: 30, Window: time.Minute},
	}

	tests := []struct {
		path      string
		method    string
		wantLimit int
	}{
		{"/share/special/feedback", "POST", 30}, // exact
		{"/share/special/other", "POST", 20},    // longest prefix
		{"/share/special/other", "GET", 10},     // any-method prefix
		{"/share/abc", "DELETE", 10},
	}
	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if got == nil {
			t.Errorf("%s %s: expected a match", tt.method, tt.path)
			continue
		}
		if got.Limit != tt.wantLimit {
			t.Errorf("%s %s: expected limit %d, got %d", tt.method, tt.path, tt.wantLimit, got.Limit)
		}
	}

	if got := MatchEndpoint("/applications", "POST", configs); got != nil {
		t.Errorf("expected no match, got %+v", got)
	}
}

func TestLoadConfig_FeedbackLimitOverride(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_FEEDBACK_LIMIT", "7")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	got := MatchEndpoint("/share/x/feedback", "POST", cfg.EndpointConfigs)
	if got == nil || got.Limit != 7 {
		t.Errorf("Expected feedback limit 7, got %+v", got)
	}
	if !cfg.Whitelist["10.0.0.2"] {
		t.Error("Expected whitelist to be parsed")
	}
	if cfg.RedisPrefix != "ats:ratelimit" {
		t.Errorf("Expected default redis prefix, got %q", cfg.RedisPrefix)
	}
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	if LoadConfig().Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}
