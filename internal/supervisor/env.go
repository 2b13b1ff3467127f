// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"sort"
	"strings"

	"github.com/wingedpig/wayout/internal/config"
)

// buildEnv layers base, display-session defaults and per-application
// overrides. Later layers win and each key appears once.
func buildEnv(base []string, display config.DisplayConfig, overrides map[string]string) []string {
	vars := make(map[string]string, len(base)+len(overrides)+2)
	order := make([]string, 0, len(base)+len(overrides)+2)

	set := func(k, v string) {
		if _, seen := vars[k]; !seen {
			order = append(order, k)
		}
		vars[k] = v
	}

	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		set(k, v)
	}

	wayland := vars["WAYLAND_DISPLAY"]
	if wayland == "" {
		wayland = display.WaylandDisplay
	}
	if wayland == "" {
		wayland = config.DefaultWaylandDisplay
	}
	set("WAYLAND_DISPLAY", wayland)

	session := display.SessionType
	if session == "" {
		session = config.DefaultSessionType
	}
	set("XDG_SESSION_TYPE", session)

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		set(k, overrides[k])
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+vars[k])
	}
	return env
}
