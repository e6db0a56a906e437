package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	projectDir := t.TempDir()
	logger, err := New(projectDir, "info")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("compiled %d documents\n", 3)
	logger.Debug("hidden")
	logger.Info("resolved", zap.Int("processes", 2))
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(projectDir, ".waypoint", "logs", "waypoint.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (debug filtered), got %d: %q", len(lines), lines)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if entry["msg"] != "compiled 3 documents" {
		t.Fatalf("unexpected message %v", entry["msg"])
	}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if entry["processes"] != float64(2) {
		t.Fatalf("expected processes field, got %v", entry)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if ParseLevel("DEBUG") != zapcore.DebugLevel {
		t.Fatalf("expected debug")
	}
	if ParseLevel("loud") != zapcore.InfoLevel {
		t.Fatalf("expected info fallback")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	logger.Info("ignored")
	logger.SetLevel("debug")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
	if logger.Named("x") != nil {
		t.Fatalf("expected nil child")
	}
}
