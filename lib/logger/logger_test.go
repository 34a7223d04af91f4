package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLookupEncoder(t *testing.T) {
	tests := []struct {
		name    string
		lookup  func() error
		wantErr bool
	}{
		{"level capital", func() error { _, err := lookupEncoder("levelEncoder", levelEncoders, "capital"); return err }, false},
		{"level unknown", func() error { _, err := lookupEncoder("levelEncoder", levelEncoders, "loud"); return err }, true},
		{"time iso8601", func() error { _, err := lookupEncoder("timeEncoder", timeEncoders, "iso8601"); return err }, false},
		{"time empty", func() error { _, err := lookupEncoder("timeEncoder", timeEncoders, ""); return err }, true},
		{"duration string", func() error { _, err := lookupEncoder("durationEncoder", durationEncoders, "string"); return err }, false},
		{"caller short", func() error { _, err := lookupEncoder("callerEncoder", callerEncoders, "short"); return err }, false},
		{"caller relative", func() error { _, err := lookupEncoder("callerEncoder", callerEncoders, "relative"); return err }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lookup()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLookupEncoderNamesChoices(t *testing.T) {
	_, err := lookupEncoder("callerEncoder", callerEncoders, "relative")
	if err == nil || !strings.Contains(err.Error(), "[full short]") {
		t.Errorf("expected the valid choices in the error, got %v", err)
	}
}

func TestResolveOutputPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := resolveOutputPaths([]string{"stdout", dir}, now)
	if err != nil {
		t.Fatal(err)
	}
	if first[0] != "stdout" {
		t.Errorf("expected stdout to pass through, got %q", first[0])
	}
	expected := filepath.Join(dir, "gsw_sync_log-2026-01-02 03-04-05.log")
	if first[1] != expected {
		t.Errorf("expected %q, got %q", expected, first[1])
	}
	if _, err := os.Stat(first[1]); err != nil {
		t.Errorf("log file not created: %v", err)
	}

	second, err := resolveOutputPaths([]string{dir}, now)
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != expected+".1" {
		t.Errorf("expected a numbered file for the same session time, got %q", second[0])
	}
}

func TestInitFromConfig(t *testing.T) {
	dir := t.TempDir()
	config := `
level: debug
encoding: json
OutputPaths:
  - ` + filepath.Join(dir, "out") + `
encoderConfig:
  messageKey: msg
  levelKey: level
  timeKey: ts
  nameKey: logger
  callerKey: caller
  stacktraceKey: stack
  levelEncoder: lowercase
  timeEncoder: iso8601
  durationEncoder: string
  callerEncoder: short
`
	if err := os.WriteFile(filepath.Join(dir, "logger.yaml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	previous := logger
	t.Cleanup(func() { logger = previous })

	cfg, err := loadLoggerConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := initFromConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if !Log().Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}
}

func TestInitFromConfigRejectsBadEncoder(t *testing.T) {
	dir := t.TempDir()
	config := "level: info\nencoding: console\nOutputPaths: [stderr]\nencoderConfig:\n  levelEncoder: sparkly\n"
	if err := os.WriteFile(filepath.Join(dir, "logger.yaml"), []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	previous := logger
	t.Cleanup(func() { logger = previous })

	cfg, err := loadLoggerConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := initFromConfig(cfg); err == nil {
		t.Error("expected an error for an unknown level encoder")
	}
	if logger != previous {
		t.Error("a rejected config should keep the current logger")
	}
}
