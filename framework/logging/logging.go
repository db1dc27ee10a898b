// Package logging builds the framework logger from configuration.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/km-arc/keel/framework/config"
)

// New builds a zap logger from the config: a development logger when
// APP_DEBUG is set, a production JSON logger otherwise, with the level taken
// from LOG_LEVEL. An unparseable level falls back to info.
func New(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.App.Debug {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named(cfg.App.Name)
}
