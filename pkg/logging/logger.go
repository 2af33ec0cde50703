// Package logging wraps log/slog with the small surface the pipeline needs:
// leveled structured logging, JSON or text output, and per-component child
// loggers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type LogConfig struct {
	Level  string // trace|debug|info|warn|error (trace maps to debug-4)
	Format string // "json" or "text"
	Output io.Writer
}

func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "json", Output: os.Stdout}
}

type Logger struct {
	slogger *slog.Logger
}

func New(cfg LogConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &Logger{slogger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a child logger tagged with a component name so log
// lines can be attributed to a pipeline stage.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{slogger: l.slogger.With(slog.String("component", name))}
}

func (l *Logger) Debug(msg string, args ...slog.Attr) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...slog.Attr)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...slog.Attr)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...slog.Attr) { l.log(slog.LevelError, msg, args...) }

func (l *Logger) log(level slog.Level, msg string, attrs ...slog.Attr) {
	anys := make([]any, 0, len(attrs))
	for _, a := range attrs {
		anys = append(anys, a)
	}
	l.slogger.Log(nil, level, msg, anys...)
}

// Attr helpers so call sites don't import slog directly.
func String(k, v string) slog.Attr            { return slog.String(k, v) }
func Int(k string, v int) slog.Attr           { return slog.Int(k, v) }
func Int64(k string, v int64) slog.Attr       { return slog.Int64(k, v) }
func Float64(k string, v float64) slog.Attr   { return slog.Float64(k, v) }
func Bool(k string, v bool) slog.Attr         { return slog.Bool(k, v) }
func Err(err error) slog.Attr                 { return slog.String("error", err.Error()) }
func Duration(k string, v time.Duration) slog.Attr {
	return slog.String(k, v.String())
}
