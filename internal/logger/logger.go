// Package logger provides the leveled printf-style logger used across the
// service. Side-effect failures are logged at Warn; primary-path failures at
// Error.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes timestamped, level-tagged lines to a single writer.
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    io.Writer
	prefix string
}

// New creates a logger with the given writer, level, and prefix.
func New(out io.Writer, level Level, prefix string) *Logger {
	return &Logger{level: level, out: out, prefix: prefix}
}

// Default returns a logger writing to stderr at INFO with the service prefix.
func Default() *Logger {
	return New(os.Stderr, LevelInfo, "[worknest]")
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s%s %s\n", ts, l.prefix, levelTag(level), msg)
}

func levelTag(level Level) string {
	switch level {
	case LevelDebug:
		return " [DEBUG]"
	case LevelInfo:
		return " [INFO]"
	case LevelWarn:
		return " [WARN]"
	case LevelError:
		return " [ERROR]"
	default:
		return " [?]"
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }
