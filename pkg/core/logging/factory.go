// ============================================================================
// aichat - Voice Chat Client
// ============================================================================
//
// Package:     logging
// Description: zap-backed loggers with a key/value call style
// Author:      aichat contributors
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseMu sync.RWMutex
	// Until Configure runs, loggers discard everything. The terminal belongs
	// to the UI, so nothing may write to stdout by default.
	base = zap.NewNop()
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format
	Format string // "json" or "console" (default: json)

	// File receives log output. Empty means no file.
	File string

	// Additional outputs (besides File)
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
	}
}

// NewLogger builds a zap logger from cfg. The returned closer flushes the
// logger and closes the log file, if any.
func NewLogger(cfg LoggerConfig) (*zap.Logger, func() error, error) {
	var writers []zapcore.WriteSyncer
	var file *os.File

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, zapcore.AddSync(f))
	}
	for _, w := range cfg.AdditionalOutputs {
		writers = append(writers, zapcore.AddSync(w))
	}

	if len(writers) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" || cfg.Format == "text" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), ParseLevel(cfg.Level).zapLevel())
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if cfg.ServiceName != "" {
		logger = logger.With(zap.String("service", cfg.ServiceName))
	}

	closer := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closer, nil
}

// Configure replaces the process-wide base logger used by New.
func Configure(cfg LoggerConfig) (func() error, error) {
	logger, closer, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	baseMu.Lock()
	base = logger
	baseMu.Unlock()

	return closer, nil
}

// Logger wraps a named zap logger with a key/value API
type Logger struct {
	zl   *zap.Logger
	name string
}

// New creates a named logger from the process-wide base
func New(name string) *Logger {
	baseMu.RLock()
	b := base
	baseMu.RUnlock()

	return &Logger{zl: b.Named(name), name: name}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// With returns a logger that adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{zl: l.zl.With(toFields(keysAndValues...)...), name: l.name}
}

// WithLevel returns a logger that drops entries below level. It can only
// raise the threshold of the base logger.
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{zl: l.zl.WithOptions(zap.IncreaseLevel(level.zapLevel())), name: l.name}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.zl.Debug(msg, toFields(keysAndValues...)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.zl.Info(msg, toFields(keysAndValues...)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.zl.Warn(msg, toFields(keysAndValues...)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.zl.Error(msg, toFields(keysAndValues...)...)
}

// toFields converts key-value pairs to zap fields. Non-string keys and a
// trailing key without value are skipped.
func toFields(keysAndValues ...interface{}) []zap.Field {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
