package redis

import (
	"context"
	"testing"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client error = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// Without Redis every request is allowed
	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != YahooRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", YahooRateLimit.Limit, remaining)
	}

	if err := limiter.Wait(context.Background(), YahooRateLimit); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	// Cache operations become no-ops
	if err := cache.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestRunLock_Disabled(t *testing.T) {
	lock := NewRunLock(disabledClient(t), "test", "owner-1", time.Hour)
	ctx := context.Background()

	// Without Redis the single process is the only runner
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !acquired {
		t.Error("Expected lock to be acquired when Redis disabled")
	}
	if err := lock.Release(ctx); err != nil {
		t.Errorf("Release() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "HistoryKey",
			fn:       func() string { return HistoryKey("BHP.AX", 180) },
			expected: "history:BHP.AX:180d",
		},
		{
			name:     "QuoteKey",
			fn:       func() string { return QuoteKey("YAP=F") },
			expected: "quote:YAP=F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
