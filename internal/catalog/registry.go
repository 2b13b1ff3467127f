// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the immutable set of launchable applications.
package catalog

import (
	"fmt"

	"github.com/wingedpig/wayout/internal/config"
)

// Descriptor describes one launchable application.
type Descriptor struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Category    string            `json:"category,omitempty"`
	Executable  string            `json:"executable"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	WorkDir     string            `json:"workDir,omitempty"`
	PTY         bool              `json:"pty,omitempty"`
}

// Registry is a read-only, ordered application catalog.
// It is safe for concurrent use since nothing mutates it after New.
type Registry struct {
	apps  []Descriptor
	index map[string]int
}

// New builds a registry from catalog entries.
func New(configs []config.ApplicationConfig) (*Registry, error) {
	r := &Registry{
		apps:  make([]Descriptor, 0, len(configs)),
		index: make(map[string]int, len(configs)),
	}

	for i, cfg := range configs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("applications[%d]: id is required", i)
		}
		if cfg.Executable == "" {
			return nil, fmt.Errorf("application %q: executable is required", cfg.ID)
		}
		if _, dup := r.index[cfg.ID]; dup {
			return nil, fmt.Errorf("application %q: duplicate id", cfg.ID)
		}

		r.index[cfg.ID] = len(r.apps)
		r.apps = append(r.apps, fromConfig(cfg))
	}

	return r, nil
}

func fromConfig(cfg config.ApplicationConfig) Descriptor {
	d := Descriptor{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Icon:        cfg.Icon,
		Category:    cfg.Category,
		Executable:  cfg.Executable,
		WorkDir:     cfg.WorkDir,
		PTY:         cfg.PTY,
	}
	if len(cfg.Args) > 0 {
		d.Args = append([]string(nil), cfg.Args...)
	}
	if len(cfg.Env) > 0 {
		d.Env = make(map[string]string, len(cfg.Env))
		for k, v := range cfg.Env {
			d.Env[k] = v
		}
	}
	return d
}

// List returns all descriptors in catalog order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.apps))
	copy(out, r.apps)
	return out
}

// Get looks up a descriptor by id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	i, ok := r.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.apps[i], true
}

// Len returns the number of applications.
func (r *Registry) Len() int {
	return len(r.apps)
}

// Executables returns the distinct executable paths in the catalog.
func (r *Registry) Executables() []string {
	seen := make(map[string]bool, len(r.apps))
	var out []string
	for _, d := range r.apps {
		if seen[d.Executable] {
			continue
		}
		seen[d.Executable] = true
		out = append(out, d.Executable)
	}
	return out
}
