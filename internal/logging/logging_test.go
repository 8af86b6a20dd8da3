package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"unknown": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToNop(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %v", logger.GetLevel())
	}

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("hello")
	if buf.Len() == 0 {
		t.Error("logger from context did not write")
	}
}

func TestLogStageFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	LogStage(logger, "load", "INFY.NS", 15*time.Millisecond, errors.New("no data"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "warn" || entry["stage"] != "load" || entry["symbol"] != "INFY.NS" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["error"] != "no data" {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestLogRequestLevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warn"},
		{502, "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		LogRequest(zerolog.New(&buf), "req-1", "GET", "/", tt.status, time.Millisecond)

		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		if entry["level"] != tt.level {
			t.Errorf("status %d logged at %v, want %s", tt.status, entry["level"], tt.level)
		}
	}
}

func TestLogProviderCallLevels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := WithProvider(zerolog.New(&buf), "yahoo")

	LogProviderCall(logger, "TCS.NS", 200, 40*time.Millisecond, nil)
	var ok map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &ok); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if ok["level"] != "debug" || ok["provider"] != "yahoo" || ok["status"] != float64(200) {
		t.Errorf("unexpected entry: %v", ok)
	}

	buf.Reset()
	LogProviderCall(logger, "TCS.NS", 0, time.Second, errors.New("connection refused"))
	var failed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &failed); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if failed["level"] != "warn" || failed["error"] != "connection refused" {
		t.Errorf("unexpected entry: %v", failed)
	}
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "forecaster.log")
	logger := NewLoggerWithConfig(LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Str("symbol", "ITC.NS").Msg("loaded")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"service":"forecaster"`)) || !bytes.Contains(data, []byte("ITC.NS")) {
		t.Errorf("unexpected log file contents: %s", data)
	}
}
