package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "info level",
			cfg:       &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "json"},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "error level",
			cfg:       &config.Config{Env: "production", LogLevel: "error", LogFormat: "json"},
			wantLevel: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.cfg)
			if log == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.wantLevel {
				t.Errorf("Expected global level %v, got %v", tt.wantLevel, zerolog.GlobalLevel())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// bufLogger builds a logger writing into buf so output can be asserted
func bufLogger(buf *bytes.Buffer) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	return &Logger{zlog: zerolog.New(buf)}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := bufLogger(&buf).Component("scanner")

	log.Info("scan started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v", err)
	}
	if entry["component"] != "scanner" {
		t.Errorf("Expected component=scanner, got %v", entry["component"])
	}
	if entry["message"] != "scan started" {
		t.Errorf("Expected message, got %v", entry["message"])
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := bufLogger(&buf).WithFields(map[string]interface{}{
		"symbol": "BHP.AX",
		"count":  3,
	})

	log.Warn("excluded")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v", err)
	}
	if entry["symbol"] != "BHP.AX" {
		t.Errorf("Expected symbol field, got %v", entry["symbol"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("Expected count field, got %v", entry["count"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level, got %v", entry["level"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := bufLogger(&buf).WithError(errors.New("fetch failed"))

	log.Error("phase degraded")

	if !strings.Contains(buf.String(), "fetch failed") {
		t.Errorf("Expected error in output, got %s", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere
	log := NewNop()
	log.Info("dropped")
	log.WithField("k", "v").Error("also dropped")
	log.Component("x").Debug("and this")
}
