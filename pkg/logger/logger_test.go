package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerSafeBeforeInit(t *testing.T) {
	// The feed-failure path logs a warning before anything calls
	// Init; a nil global here would turn graceful degradation into
	// a panic
	if Log == nil {
		t.Fatal("Global logger must never be nil")
	}

	Debug("debug before init")
	Info("info before init")
	Warn("warn before init", zap.String("key", "value"))
	Error("error before init")
	Sync()
}

func TestInit(t *testing.T) {
	if err := Init("debug", ""); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if Log == nil {
		t.Fatal("Init should set the global logger")
	}

	Info("logger initialized")
}

func TestInit_UnknownLevelDefaultsToInfo(t *testing.T) {
	if err := Init("chatty", ""); err != nil {
		t.Fatalf("Unknown level should fall back to info, got error: %v", err)
	}

	if !Log.Core().Enabled(zap.InfoLevel) {
		t.Error("Info level should be enabled after fallback")
	}
	if Log.Core().Enabled(zap.DebugLevel) {
		t.Error("Debug level should stay disabled after fallback")
	}
}

func TestInit_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "cnyfix.log")

	if err := Init("info", logFile); err != nil {
		t.Fatalf("Failed to initialize logger with file output: %v", err)
	}

	Info("written to file")
	Sync()

	info, err := os.Stat(logFile)
	if err != nil {
		t.Fatalf("Log file should exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Log file should contain the entry")
	}
}
