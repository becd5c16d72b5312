// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"log/slog"
	"log/syslog"
)

// SyslogConfig configures an optional syslog forwarding sink.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string
	Tag      string
	Facility syslog.Priority
}

// DefaultSyslogConfig returns a disabled syslog sink with the engine's
// standard defaults (udp/514, facility LOG_USER = user-level messages,
// RFC 5424 facility code 1, which log/syslog stores pre-shifted as 8).
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "moonlink",
		Facility: syslog.LOG_USER,
	}
}

// SyslogWriter forwards log entries to a remote syslog collector.
type SyslogWriter struct {
	writer *syslog.Writer
}

// NewSyslogWriter dials a syslog collector per cfg, applying defaults for
// any zero-valued field.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "moonlink"
	}

	w, err := syslog.Dial(cfg.Protocol, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.Facility|syslog.LOG_INFO, cfg.Tag)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog: %w", err)
	}
	return &SyslogWriter{writer: w}, nil
}

// Write forwards a single log entry at the given level.
func (s *SyslogWriter) Write(level slog.Level, component, msg string, kv ...any) {
	line := msg
	if component != "" {
		line = component + ": " + msg
	}
	for i := 0; i+1 < len(kv); i += 2 {
		line += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}

	switch {
	case level >= slog.LevelError:
		s.writer.Err(line)
	case level >= slog.LevelWarn:
		s.writer.Warning(line)
	case level >= slog.LevelInfo:
		s.writer.Info(line)
	default:
		s.writer.Debug(line)
	}
}

// Close releases the underlying syslog connection.
func (s *SyslogWriter) Close() error {
	return s.writer.Close()
}
