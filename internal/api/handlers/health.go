// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"time"
)

// Counter reports the size of the running-set.
type Counter interface {
	Count() int
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status      string  `json:"status"`
	Uptime      float64 `json:"uptime"`
	Timestamp   string  `json:"timestamp"`
	RunningApps int     `json:"runningApps"`
}

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	started time.Time
	running Counter
	now     func() time.Time
}

// NewHealthHandler creates a health handler. started is the process start time.
func NewHealthHandler(started time.Time, running Counter) *HealthHandler {
	return &HealthHandler{started: started, running: running, now: time.Now}
}

// Health reports uptime in seconds and the number of running applications.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Uptime:      now.Sub(h.started).Seconds(),
		Timestamp:   FormatTime(now),
		RunningApps: h.running.Count(),
	})
}
