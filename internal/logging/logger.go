// Package logging provides categorized structured logging for kalimcp.
// All output goes to stderr: stdout is reserved for the JSON-RPC stream.
// One Loggers value is built at startup and handed to each component;
// there is no package-level logger.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kalimcp/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config, discovery summary
	CategoryTools    Category = "tools"    // Catalog loading and binary probing
	CategoryRouting  Category = "routing"  // Request parsing and method dispatch
	CategoryTactile  Category = "tactile"  // Subprocess execution
	CategoryProtocol Category = "protocol" // Response encoding and stream writes
)

// Loggers hands out per-category loggers that share one zap core.
type Loggers struct {
	root       *zap.Logger
	categories map[string]bool
}

// New builds loggers writing to stderr.
func New(cfg config.LoggingConfig) (*Loggers, error) {
	return NewWithSink(cfg, zapcore.Lock(os.Stderr))
}

// NewWithSink builds loggers writing to an arbitrary sink.
func NewWithSink(cfg config.LoggingConfig, sink zapcore.WriteSyncer) (*Loggers, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return &Loggers{
		root:       zap.New(core, zap.AddCaller()),
		categories: cfg.Categories,
	}, nil
}

// Nop returns loggers that discard everything. Used by tests.
func Nop() *Loggers {
	return &Loggers{root: zap.NewNop()}
}

// Root returns the uncategorized logger.
func (l *Loggers) Root() *zap.Logger {
	return l.root
}

// Get returns the logger for a category, or a no-op logger if the
// category is disabled.
func (l *Loggers) Get(category Category) *zap.Logger {
	if enabled, ok := l.categories[string(category)]; ok && !enabled {
		return zap.NewNop()
	}
	return l.root.Named(string(category))
}

// Sync flushes buffered entries.
func (l *Loggers) Sync() error {
	return l.root.Sync()
}

// Timer logs the duration of an operation when stopped.
type Timer struct {
	logger    *zap.Logger
	operation string
	start     time.Time
}

// StartTimer starts timing an operation.
func StartTimer(logger *zap.Logger, operation string) *Timer {
	return &Timer{logger: logger, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug("operation finished",
		zap.String("operation", t.operation),
		zap.Duration("elapsed", elapsed))
	return elapsed
}
