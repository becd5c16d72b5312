// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured logger used throughout the
// impairment engine: leveled, key-value, component-scoped, with an optional
// syslog sink for shipping logs to a central collector.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Level is a logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config controls how a Logger renders and where it writes.
type Config struct {
	Output io.Writer
	Level  Level
	JSON   bool
	Syslog SyslogConfig
}

// DefaultConfig returns the engine's default logging configuration:
// human-readable text on stdout at Info level, syslog disabled.
func DefaultConfig() Config {
	return Config{
		Output: os.Stdout,
		Level:  LevelInfo,
		JSON:   false,
		Syslog: DefaultSyslogConfig(),
	}
}

// Logger is a leveled, key-value, component-scoped logger.
type Logger struct {
	slog      *slog.Logger
	component string
	syslog    *SyslogWriter
}

// New constructs a Logger from cfg. If cfg.Syslog is enabled, logs are
// additionally written to the syslog sink; a sink that fails to dial does
// not prevent the logger from being constructed — the error is dropped to
// local output instead, since losing the syslog forwarder must never take
// the engine down.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	l := &Logger{slog: slog.New(handler)}

	if cfg.Syslog.Enabled {
		w, err := NewSyslogWriter(cfg.Syslog)
		if err == nil {
			l.syslog = w
		} else {
			l.slog.Warn("logging: syslog sink unavailable, logging locally only", "error", err)
		}
	}

	return l
}

// WithComponent returns a derived Logger that tags every entry with the
// given component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		slog:      l.slog.With("component", name),
		component: name,
		syslog:    l.syslog,
	}
}

func (l *Logger) log(level slog.Level, msg string, kv ...any) {
	l.slog.Log(context.Background(), level, msg, kv...)
	if l.syslog != nil {
		l.syslog.Write(level, l.component, msg, kv...)
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(slog.LevelInfo, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(slog.LevelWarn, msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.log(slog.LevelError, msg, kv...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(DefaultConfig())
)

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func getDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithComponent returns a component-scoped logger derived from the default logger.
func WithComponent(name string) *Logger { return getDefault().WithComponent(name) }

func Debug(msg string, kv ...any) { getDefault().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { getDefault().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { getDefault().Warn(msg, kv...) }
func Error(msg string, kv ...any) { getDefault().Error(msg, kv...) }
