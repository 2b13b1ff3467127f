// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGracePeriod    = "5s"
	DefaultStopSignal     = "SIGTERM"
	DefaultWaylandDisplay = "wayland-0"
	DefaultSessionType    = "wayland"

	DefaultCrashReportsDir = ".wayout/crashes"
)

// Loader handles catalog file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the catalog from the given path. The format is
// picked from the file extension: .toml, .yaml/.yml, anything else is HJSON
// (which also accepts plain JSON).
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.Parse(data, filepath.Ext(path))
}

// Parse decodes catalog content in the format named by ext.
func (l *Loader) Parse(data []byte, ext string) (*Config, error) {
	// Decode to an intermediate map, then go through JSON so every format
	// shares the json tags on Config.
	var raw map[string]interface{}
	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := hjson.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse hjson: %w", err)
		}
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads the catalog, applies defaults and validates it.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FindConfig searches for a catalog file in dir.
func (l *Loader) FindConfig(dir string) (string, error) {
	candidates := []string{
		"applications.hjson",
		"applications.json",
		"applications.toml",
		"applications.yaml",
	}

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found in %s (looked for %s)", dir, strings.Join(candidates, ", "))
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Display.WaylandDisplay == "" {
		cfg.Display.WaylandDisplay = DefaultWaylandDisplay
	}
	if cfg.Display.SessionType == "" {
		cfg.Display.SessionType = DefaultSessionType
	}

	if cfg.Supervisor.GracePeriod == "" {
		cfg.Supervisor.GracePeriod = DefaultGracePeriod
	}
	if cfg.Supervisor.StopSignal == "" {
		cfg.Supervisor.StopSignal = DefaultStopSignal
	}
	if cfg.Supervisor.LogBufferSize == 0 {
		cfg.Supervisor.LogBufferSize = 1000
	}

	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 1000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "250ms"
	}

	if cfg.Crashes.ReportsDir == "" {
		cfg.Crashes.ReportsDir = DefaultCrashReportsDir
	}
	if cfg.Crashes.MaxAge == "" {
		cfg.Crashes.MaxAge = "168h"
	}
	if cfg.Crashes.MaxCount == 0 {
		cfg.Crashes.MaxCount = 100
	}
}
