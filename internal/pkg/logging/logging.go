package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ManuelReschke/TierFox/internal/pkg/env"
)

var (
	global *zap.Logger
	mu     sync.RWMutex
)

// New builds a zap logger. format "json" selects the production encoder,
// anything else the human readable development encoder.
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// SetupLogger initializes the process wide logger from LOG_LEVEL / LOG_FORMAT.
func SetupLogger() *zap.Logger {
	format := env.GetEnv("LOG_FORMAT", "json")
	if env.IsDev() {
		format = env.GetEnv("LOG_FORMAT", "console")
	}
	l := New(env.GetEnv("LOG_LEVEL", "info"), format)
	SetLogger(l)
	return l
}

// SetLogger replaces the global logger (tests use zaptest loggers here).
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// L returns the global logger, a no-op logger until SetupLogger was called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return zap.NewNop()
	}
	return global
}
