package logger

import (
	"testing"

	"go.uber.org/zap"
)

// Logging must be safe before Init runs; early callers get a no-op logger
// instead of a crash.
func TestLoggingBeforeInit(t *testing.T) {
	Log = nil

	Info("info before init", zap.String("k", "v"))
	Error("error before init")
	Warn("warn before init")
	Debug("debug before init")
	Sync()
}

func TestGetLoggerBeforeInit(t *testing.T) {
	Log = nil

	if GetLogger() == nil {
		t.Fatal("GetLogger should never return nil")
	}
}

func TestInit(t *testing.T) {
	Log = nil

	if err := Init("debug", "json", "stdout"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if Log == nil {
		t.Fatal("Init should set the package logger")
	}
	if GetLogger() != Log {
		t.Error("GetLogger should return the initialized logger")
	}

	Log = nil
}

func TestInitInvalidLevel(t *testing.T) {
	Log = nil

	if err := Init("not-a-level", "json", "stdout"); err == nil {
		t.Error("Init should reject an unknown level")
	}
}
