package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/waypoint/internal/config"
)

// Logger appends structured JSON lines to .waypoint/logs/waypoint.log so
// users can inspect failures after the wizard exits.
type Logger struct {
	zap   *zap.Logger
	file  *os.File
	level zap.AtomicLevel
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir, level string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.WaypointDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "waypoint.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	atomic := zap.NewAtomicLevelAt(ParseLevel(level))
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), atomic)
	return &Logger{zap: zap.New(core), file: f, level: atomic}, nil
}

// Wrap adapts an existing zap logger, typically zap.NewNop in tests or the
// console logger built by the CLI.
func Wrap(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logger{zap: l, level: zap.NewAtomicLevel()}
}

// ParseLevel maps a config level name onto a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) {
	if l == nil {
		return
	}
	l.level.SetLevel(ParseLevel(level))
}

// Zap exposes the underlying logger for packages that log with fields.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zap == nil {
		return zap.NewNop()
	}
	return l.zap
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zap: l.Zap().Named(name), level: l.level}
}

// Close flushes buffered entries and releases the file handle.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if l.zap != nil {
		_ = l.zap.Sync()
	}
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Printf writes a single info entry.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.zap.Info(line)
}

// Info logs msg with structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.Zap().Info(msg, fields...)
}

// Warn logs msg with structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.Zap().Warn(msg, fields...)
}

// Error logs msg with structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.Zap().Error(msg, fields...)
}

// Debug logs msg with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.Zap().Debug(msg, fields...)
}
