// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the application catalog file and the environment
// settings for the wayout server.
package config

import (
	"time"
)

// Config is the root of the catalog file.
type Config struct {
	Applications []ApplicationConfig `json:"applications"`
	Display      DisplayConfig       `json:"display"`
	Supervisor   SupervisorConfig    `json:"supervisor"`
	Events       EventsConfig        `json:"events"`
	Watch        WatchConfig         `json:"watch"`
	Crashes      CrashesConfig       `json:"crashes"`
}

// ApplicationConfig describes one launchable application.
type ApplicationConfig struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Category    string            `json:"category,omitempty"`
	Executable  string            `json:"executable"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	WorkDir     string            `json:"workDir,omitempty"`
	PTY         bool              `json:"pty,omitempty"` // attach to a pseudo-terminal instead of pipes
}

// DisplayConfig holds the display-session defaults injected into every
// launched application's environment.
type DisplayConfig struct {
	WaylandDisplay string `json:"wayland_display"` // used when WAYLAND_DISPLAY is not inherited
	SessionType    string `json:"session_type"`
}

// SupervisorConfig configures process termination and output capture.
type SupervisorConfig struct {
	GracePeriod   string `json:"grace_period"` // delay before SIGKILL escalation
	StopSignal    string `json:"stop_signal"`  // SIGTERM, SIGINT or SIGHUP
	LogBufferSize int    `json:"log_buffer_size"`
}

// EventsConfig configures the event system.
type EventsConfig struct {
	History HistoryConfig `json:"history"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// WatchConfig configures executable watching.
type WatchConfig struct {
	Enabled  *bool  `json:"enabled"`
	Debounce string `json:"debounce"`
}

// IsEnabled reports whether executable watching is on. Defaults to true.
func (w WatchConfig) IsEnabled() bool {
	if w.Enabled == nil {
		return true
	}
	return *w.Enabled
}

// CrashesConfig configures crash report storage.
type CrashesConfig struct {
	Enabled    *bool  `json:"enabled"`
	ReportsDir string `json:"reports_dir"` // relative paths resolve against the catalog file's directory
	MaxAge     string `json:"max_age"`
	MaxCount   int    `json:"max_count"`
}

// IsEnabled reports whether crash reports are kept. Defaults to true.
func (c CrashesConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// ParseDuration parses a duration string, returning defaultVal if empty or invalid.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
