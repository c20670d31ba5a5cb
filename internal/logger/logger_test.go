package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fishfollow/internal/config"
)

func TestLogger_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Info("tracking %s", "started")
	l.Warning("model %s", "missing")
	l.Error("camera %s", "unavailable")

	cases := map[string]string{
		"info.log":    "tracking started",
		"warning.log": "model missing",
		"error.log":   "camera unavailable",
	}
	for file, want := range cases {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s = %q, expected to contain %q", file, string(data), want)
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Warning("to be removed")
	if err := l.CleanLogs("warning.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("Failed to read warning.log: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty warning.log, got %q", string(data))
	}
}

func TestLogger_CleanLogsErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	if err := l.CleanLogs("debug.log"); err == nil {
		t.Error("Expected an error for a file the logger does not own")
	}

	// Never written: nothing to clear.
	if err := l.CleanLogs("error.log"); err != nil {
		t.Errorf("Expected unwritten log to clear without error, got %v", err)
	}

	if err := os.Mkdir(filepath.Join(dir, "warning.log"), 0755); err != nil {
		t.Fatalf("Failed to create blocking directory: %v", err)
	}
	if err := l.CleanLogs("warning.log"); err == nil {
		t.Error("Expected truncate failure to be reported")
	}
}
