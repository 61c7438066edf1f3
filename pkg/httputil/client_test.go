package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

func TestNew(t *testing.T) {
	client := New(logger.NewNop(), 5*time.Second)
	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}
	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}
	if !client.retryConfig.Enabled {
		t.Error("Expected retry to be enabled by default")
	}
}

func TestWithRetry(t *testing.T) {
	client := New(logger.NewNop(), 5*time.Second).WithRetry(5, 2*time.Second)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}
	if client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay=2s, got %v", client.retryConfig.InitialDelay)
	}
}

func TestDisableRetry(t *testing.T) {
	client := New(logger.NewNop(), 5*time.Second).DisableRetry()

	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BHP.AX","price":42.5}`))
	}))
	defer server.Close()

	var dest struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}

	client := New(logger.NewNop(), 5*time.Second)
	if err := client.GetJSON(context.Background(), server.URL, &dest); err != nil {
		t.Fatalf("GetJSON() failed: %v", err)
	}

	if dest.Symbol != "BHP.AX" {
		t.Errorf("Expected symbol BHP.AX, got %s", dest.Symbol)
	}
	if dest.Price != 42.5 {
		t.Errorf("Expected price 42.5, got %f", dest.Price)
	}
}

func TestGetJSONNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second).DisableRetry()
	var dest map[string]interface{}
	if err := client.GetJSON(context.Background(), server.URL, &dest); err == nil {
		t.Error("Expected error on 404, got nil")
	}
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json content type, got %s", ct)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second)
	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"symbol": "BHP.AX"})
	if err != nil {
		t.Fatalf("PostJSON() failed: %v", err)
	}
	resp.Body.Close()
}

func TestWithUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "screener-test" {
			t.Errorf("Expected User-Agent screener-test, got %s", ua)
		}
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second).WithUserAgent("screener-test")
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	resp.Body.Close()
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second).WithRetry(3, time.Millisecond)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected eventual 200, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestNonRetryableStatusReturnsResponse(t *testing.T) {
	// Callers must check StatusCode themselves: a 4xx comes back with
	// a nil error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(logger.NewNop(), 5*time.Second)
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected nil error on 400, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		if got := IsRetryableStatus(tt.status); got != tt.want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
