package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LogLevelSilent disables all logging
	LogLevelSilent LogLevel = iota
	// LogLevelError shows only errors
	LogLevelError
	// LogLevelWarn shows warnings and errors
	LogLevelWarn
	// LogLevelInfo shows info, warnings, and errors (verbose mode)
	LogLevelInfo
	// LogLevelDebug shows all logs including debug information
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelSilent: "silent",
	LogLevelError:  "error",
	LogLevelWarn:   "warn",
	LogLevelInfo:   "info",
	LogLevelDebug:  "debug",
}

var slogLevels = map[LogLevel]slog.Level{
	LogLevelError: slog.LevelError,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelDebug: slog.LevelDebug,
}

// String returns the lowercase level name.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a config value to a LogLevel. Unknown values fall back to warn.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off", "none":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelWarn
	}
}

// FileConfig enables a rotating log file next to the console output.
type FileConfig struct {
	Path       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Logger provides structured logging with levels
type Logger struct {
	mu     sync.RWMutex
	level  LogLevel
	base   io.Writer
	file   *lumberjack.Logger
	slog   *slog.Logger
}

var defaultLogger = New(os.Stderr, LogLevelWarn)

// New builds a Logger writing slog text records to output.
func New(output io.Writer, level LogLevel) *Logger {
	l := &Logger{base: output, level: level}
	l.rebuild()
	return l
}

// rebuild points the handler at base, tee'd into the log file when one is open.
func (l *Logger) rebuild() {
	output := l.base
	if l.file != nil {
		output = io.MultiWriter(l.base, l.file)
	}
	threshold := slog.LevelError
	if lv, ok := slogLevels[l.level]; ok {
		threshold = lv
	}
	l.slog = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: threshold}))
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
	defaultLogger.rebuild()
}

// GetLogLevel returns the current log level
func GetLogLevel() LogLevel {
	defaultLogger.mu.RLock()
	defer defaultLogger.mu.RUnlock()
	return defaultLogger.level
}

// SetOutput redirects the global logger, keeping its level and any log file.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.base = w
	defaultLogger.rebuild()
}

// EnableFile tees the global logger into a lumberjack-rotated file, next to
// the current output. An empty path is a no-op.
func EnableFile(cfg FileConfig) {
	if cfg.Path == "" {
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if defaultLogger.file != nil {
		defaultLogger.file.Close()
	}
	defaultLogger.file = fileWriter
	defaultLogger.rebuild()
}

// Close releases the log file opened by EnableFile, if any. Output goes
// back to the writer in use before the file was enabled.
func Close() error {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if defaultLogger.file == nil {
		return nil
	}
	err := defaultLogger.file.Close()
	defaultLogger.file = nil
	defaultLogger.rebuild()
	return err
}

// log writes a log message if the level is enabled
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if level > l.level || l.level == LogLevelSilent {
		return
	}

	l.slog.Log(context.Background(), slogLevels[level], fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	defaultLogger.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	defaultLogger.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	defaultLogger.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	defaultLogger.log(LogLevelError, format, args...)
}
