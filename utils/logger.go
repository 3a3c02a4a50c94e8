package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps debug|info|warn|error (any case) to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	level  Level
	color  bool
	now    func() time.Time
}

// NewLogger creates an info-level Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerWithLevel(LevelInfo)
}

// NewLoggerWithLevel creates a Logger writing to stdout/stderr; errors go to stderr.
func NewLoggerWithLevel(level Level) *Logger {
	return &Logger{
		out:    os.Stdout,
		errOut: os.Stderr,
		level:  level,
		color:  !color.NoColor,
		now:    time.Now,
	}
}

// NewLoggerTo creates an uncolored Logger that writes every level to w.
func NewLoggerTo(w io.Writer, level Level) *Logger {
	return &Logger{out: w, errOut: w, level: level, now: time.Now}
}

func (l *Logger) timestamp() string {
	return l.now().Format("2006-01-02 15:04:05")
}

func (l *Logger) write(level Level, w io.Writer, tag string, attr color.Attribute, format string, args ...any) {
	if l == nil || level < l.level || w == nil {
		return
	}
	if l.color {
		tag = color.New(attr).Sprint(tag)
	}
	line := fmt.Sprintf("[%s] %s %s\n", l.timestamp(), tag, fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(w, line)
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, l.outWriter(), "INFO ", color.FgGreen, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, l.outWriter(), "WARN ", color.FgYellow, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, l.errWriter(), "ERROR", color.FgRed, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelDebug, l.outWriter(), "DEBUG", color.FgCyan, format, args...)
}

func (l *Logger) outWriter() io.Writer {
	if l == nil {
		return nil
	}
	return l.out
}

func (l *Logger) errWriter() io.Writer {
	if l == nil {
		return nil
	}
	return l.errOut
}

// Print writes an info line; it lets the Logger back chi's request logger.
func (l *Logger) Print(v ...any) {
	l.Info("%s", strings.TrimSpace(fmt.Sprint(v...)))
}
