// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/kelseyhightower/envconfig"
)

// Mode values for WAYOUT_MODE.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Env holds settings read from the process environment.
type Env struct {
	Port       int    `envconfig:"PORT" default:"3001"`
	Host       string `envconfig:"HOST" default:"0.0.0.0"`
	Mode       string `envconfig:"WAYOUT_MODE" default:"development"`
	UIDir      string `envconfig:"WAYOUT_UI_DIR" default:"frontend/dist"`
	ConfigPath string `envconfig:"WAYOUT_CONFIG"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev     bool   `envconfig:"LOG_DEV" default:"false"`
}

// LoadEnv reads Env from the environment.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if env.Mode != ModeDevelopment && env.Mode != ModeProduction {
		return nil, fmt.Errorf("WAYOUT_MODE must be %q or %q, got %q", ModeDevelopment, ModeProduction, env.Mode)
	}
	if env.Port <= 0 || env.Port > 65535 {
		return nil, fmt.Errorf("PORT out of range: %d", env.Port)
	}
	return &env, nil
}

// ServeUI reports whether static UI assets should be served.
func (e *Env) ServeUI() bool {
	return e.Mode == ModeProduction
}

// Addr returns the listen address.
func (e *Env) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}
