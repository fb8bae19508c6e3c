// Package logger holds the process-wide zap logger. Until Init runs every
// call is a no-op, which keeps library code and tests quiet by default.
package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and encoding of the global logger.
type Options struct {
	// Level is a zap level name; unknown values fall back to info.
	Level string
	// Format "console" selects the development encoder; anything else is JSON.
	Format string
}

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init builds a logger from opts and installs it globally.
func Init(opts Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(opts.Level))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Replace(l)
	return nil
}

func parseLevel(name string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Replace installs l as the global logger; nil restores the no-op logger.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

func Logger() *zap.Logger {
	return global.Load()
}

func Sync() error {
	return Logger().Sync()
}

// WithModule returns a child of the global logger tagged with module.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}
