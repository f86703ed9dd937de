package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Additional-Code/furni4/internal/config"
)

func TestBuildWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	logger, err := Build(config.Observability{
		ServiceName:   "furni4",
		Environment:   "test",
		LogLevel:      "debug",
		LogEncoding:   "json",
		LogFile:       path,
		LogMaxSizeMB:  1,
		LogMaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}

	logger.Info("order inserted")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"order inserted"`) {
		t.Fatalf("log file missing entry: %s", raw)
	}
	if !strings.Contains(string(raw), `"service":"furni4"`) {
		t.Fatalf("log file missing service field: %s", raw)
	}
}

func TestBuildFallsBackToInfoLevel(t *testing.T) {
	logger, err := Build(config.Observability{LogLevel: "chatty", LogEncoding: "json"})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled when the level is unknown")
	}
}
