package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFileCore_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	core := newFileCore("development", FileOptions{Path: path, MaxSizeMB: 1})

	if !core.Enabled(zapcore.DebugLevel) {
		t.Error("development file core should log debug entries")
	}

	// Exercise the sink through a standalone logger so the global stays untouched.
	sink := newFileCore("production", FileOptions{Path: path, MaxSizeMB: 1})
	if sink.Enabled(zapcore.DebugLevel) {
		t.Error("production file core should drop debug entries")
	}

	log := zap.New(sink).Sugar()
	log.Infow("budget spending computed", "owner_id", "u1")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), `"owner_id":"u1"`) {
		t.Errorf("expected JSON line with owner_id, got %q", data)
	}
}

func TestGet_InitializesLazily(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get should never return nil")
	}
	Sync()
}

func TestReplace_RestoresPrevious(t *testing.T) {
	before := Get()
	restore := Replace(zap.NewNop().Sugar())
	if Get() == before {
		t.Fatal("expected the replacement to be active")
	}
	restore()
	if Get() != before {
		t.Error("expected the previous logger after restore")
	}
}
