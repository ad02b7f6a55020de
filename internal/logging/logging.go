// Package logging provides a leveled logger that writes logfmt through go-kit.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// core is shared by a logger and every child made with With.
type core struct {
	mu    sync.Mutex
	level Level
	kit   kitlog.Logger
}

// Logger is a leveled printf-style logger with optional structured context.
type Logger struct {
	core    *core
	keyvals []interface{}
}

// New creates a logger writing to stderr.
func New(lvl Level) *Logger {
	return &Logger{core: &core{level: lvl, kit: newKit(os.Stderr)}}
}

func newKit(w io.Writer) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	return kitlog.With(l, "ts", kitlog.DefaultTimestampUTC)
}

// SetOutput sets the log output destination for this logger and its children.
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.kit = newKit(w)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(lvl Level) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = lvl
}

// With returns a child logger that adds keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	kv := make([]interface{}, 0, len(l.keyvals)+len(keyvals))
	kv = append(kv, l.keyvals...)
	kv = append(kv, keyvals...)
	return &Logger{core: l.core, keyvals: kv}
}

// Kit exposes the underlying go-kit logger, with context, for libraries that take one.
func (l *Logger) Kit() kitlog.Logger {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return kitlog.With(l.core.kit, l.keyvals...)
}

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	if lvl < l.core.level {
		return
	}

	kl := l.core.kit
	if len(l.keyvals) > 0 {
		kl = kitlog.With(kl, l.keyvals...)
	}
	switch lvl {
	case LevelDebug:
		kl = level.Debug(kl)
	case LevelInfo:
		kl = level.Info(kl)
	case LevelWarn:
		kl = level.Warn(kl)
	default:
		kl = level.Error(kl)
	}
	_ = kl.Log("msg", fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{core: &core{
		level: LevelError + 1, // Higher than any level
		kit:   kitlog.NewNopLogger(),
	}}
}
