package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/km-arc/keel/framework/config"
	"github.com/km-arc/keel/framework/logging"
)

func TestNew_RespectsConfiguredLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Name = "keel-test"
	cfg.Log.Level = "warn"

	log := logging.New(cfg)
	if log == nil {
		t.Fatal("New returned nil")
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNew_UnparseableLevelFallsBackToInfo(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "loud"

	log := logging.New(cfg)
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info fallback")
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should stay disabled on fallback")
	}
}

func TestNew_DebugModeEnablesDebugLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Debug = true
	cfg.Log.Level = "debug"

	log := logging.New(cfg)
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level in debug mode")
	}
}
