// =============================================================================
// Manifest to Scale - Logging Module
// =============================================================================
//
// This module provides the Logger interface every component receives, and a
// zap-backed implementation of it. Messages use printf-style formatting.
//
// SINKS:
//   Tee wraps any Logger and forwards each formatted line to a Sink. The
//   converter uses a Recorder sink to collect warnings into its Result, so
//   callers of an upload see what was skipped or repaired.
//
// =============================================================================

package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// LOGGER INTERFACE
// =============================================================================

// Logger is the logging interface used across the application.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level names a log level for sinks.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// =============================================================================
// ZAP BACKEND
// =============================================================================

// Config holds logging configuration.
type Config struct {
	// Level is one of debug, info, warn, error. Unknown values fall back to info.
	Level string

	// Format is "console" or "json".
	Format string

	// OutputPath is an optional log file. Stderr is always written.
	OutputPath string

	// Development enables caller and stacktrace annotations.
	Development bool
}

// ZapLogger adapts a zap sugared logger to the Logger interface.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// New builds a zap logger from cfg.
//
// PARAMETERS:
//   - cfg: The logging configuration.
//
// RETURNS:
//   - The logger. Call Sync before exit.
//   - An error if the output path cannot be opened.
func New(cfg Config) (*ZapLogger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapConfig.OutputPaths = []string{"stderr"}
	if cfg.OutputPath != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.OutputPath)
	}

	base, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &ZapLogger{sugar: base.Sugar(), base: base}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar(), base: l}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugf(msg, args...) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.sugar.Infof(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnf(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorf(msg, args...) }

// With returns a logger carrying the given key/value pairs on every line.
func (l *ZapLogger) With(keysAndValues ...interface{}) *ZapLogger {
	s := l.sugar.With(keysAndValues...)
	return &ZapLogger{sugar: s, base: s.Desugar()}
}

// Zap exposes the underlying logger for libraries that take one directly.
func (l *ZapLogger) Zap() *zap.Logger { return l.base }

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error { return l.base.Sync() }

// =============================================================================
// NOP LOGGER
// =============================================================================

type nop struct{}

func (nop) Debug(string, ...interface{}) {}
func (nop) Info(string, ...interface{})  {}
func (nop) Warn(string, ...interface{})  {}
func (nop) Error(string, ...interface{}) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// =============================================================================
// SINKS
// =============================================================================

// Sink receives every formatted line passed through a Tee.
type Sink func(level Level, line string)

type tee struct {
	next Logger
	sink Sink
}

// Tee returns a Logger that logs to next and forwards each line to sink.
func Tee(next Logger, sink Sink) Logger {
	if next == nil {
		next = Nop()
	}
	return &tee{next: next, sink: sink}
}

func (t *tee) emit(level Level, msg string, args []interface{}) {
	if t.sink != nil {
		t.sink(level, format(msg, args))
	}
}

func (t *tee) Debug(msg string, args ...interface{}) {
	t.next.Debug(msg, args...)
	t.emit(LevelDebug, msg, args)
}

func (t *tee) Info(msg string, args ...interface{}) {
	t.next.Info(msg, args...)
	t.emit(LevelInfo, msg, args)
}

func (t *tee) Warn(msg string, args ...interface{}) {
	t.next.Warn(msg, args...)
	t.emit(LevelWarn, msg, args)
}

func (t *tee) Error(msg string, args ...interface{}) {
	t.next.Error(msg, args...)
	t.emit(LevelError, msg, args)
}

func format(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Recorder collects lines at or above a minimum level. It is safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	min   Level
	lines []string
}

// NewRecorder returns a Recorder keeping lines at level min or higher.
func NewRecorder(min Level) *Recorder {
	return &Recorder{min: min}
}

// Sink returns the function to pass to Tee.
func (r *Recorder) Sink() Sink {
	return func(level Level, line string) {
		if rank(level) < rank(r.min) {
			return
		}
		r.mu.Lock()
		r.lines = append(r.lines, strings.TrimSpace(line))
		r.mu.Unlock()
	}
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

func rank(l Level) int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	}
	return 1
}
