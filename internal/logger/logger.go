// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// Text format wraps the standard log package; json format goes through a slog
// JSON handler so analysis runs can be shipped to a log collector.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "FATAL"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	logger *log.Logger
	// structured is set for the json format
	structured *slog.Logger
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, format string, w io.Writer) {
	l := &Logger{
		level:  ParseLevel(level),
		logger: log.New(w, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
	}
	if strings.ToLower(format) == "json" {
		l.structured = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: l.level.slogLevel(),
		}))
	}
	defaultLogger = l
}

func emit(l Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > l {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if defaultLogger.structured != nil {
		defaultLogger.structured.Log(context.Background(), l.slogLevel(), msg)
		return
	}
	// calldepth 3: emit -> Debug/Info/... -> caller
	_ = defaultLogger.logger.Output(3, "["+l.String()+"] "+msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	emit(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	emit(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	emit(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	emit(ErrorLevel, format, args...)
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	switch {
	case defaultLogger == nil:
		log.Print(msg)
	case defaultLogger.structured != nil:
		defaultLogger.structured.Error(fmt.Sprintf(format, args...), "fatal", true)
	default:
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}
