// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wingedpig/wayout/internal/catalog"
	"github.com/wingedpig/wayout/internal/supervisor"
	"go.uber.org/zap"
)

const (
	defaultLogLines = 100
	maxLogLines     = 10000
)

// Catalog lists launchable applications.
type Catalog interface {
	List() []catalog.Descriptor
}

// Supervisor is the process supervisor as seen by the HTTP layer.
type Supervisor interface {
	Launch(ctx context.Context, appID string) (supervisor.Record, error)
	Stop(ctx context.Context, ref string) error
	ListRunning() []supervisor.Record
	Logs(ref string, n int) ([]string, error)
	Count() int
}

// RunningApp is the wire form of a running record.
type RunningApp struct {
	ID        string `json:"id"`
	AppID     string `json:"appId"`
	PID       int    `json:"pid"`
	StartedAt string `json:"startedAt"`
}

// NewRunningApp converts a supervisor record.
func NewRunningApp(rec supervisor.Record) RunningApp {
	return RunningApp{
		ID:        rec.Label,
		AppID:     rec.AppID,
		PID:       rec.PID,
		StartedAt: FormatTime(rec.StartedAt),
	}
}

// ApplicationHandler handles /api/applications.
type ApplicationHandler struct {
	catalog    Catalog
	supervisor Supervisor
	log        *zap.Logger
}

// NewApplicationHandler creates an application handler.
func NewApplicationHandler(cat Catalog, sup Supervisor, logger *zap.Logger) *ApplicationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationHandler{catalog: cat, supervisor: sup, log: logger}
}

// List returns the catalog.
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applications": h.catalog.List(),
	})
}

// Launch starts an application.
func (h *ApplicationHandler) Launch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.supervisor.Launch(r.Context(), id)
	if err != nil {
		var spawnErr *supervisor.SpawnError
		switch {
		case errors.Is(err, supervisor.ErrNotFound):
			WriteError(w, http.StatusNotFound, ErrNotFound, "Application not found")
		case errors.Is(err, supervisor.ErrAlreadyRunning):
			WriteError(w, http.StatusBadRequest, ErrAlreadyRunning, "Application already running")
		case errors.As(err, &spawnErr):
			WriteError(w, http.StatusInternalServerError, ErrSpawnFailed, spawnErr.Err.Error())
		default:
			h.log.Error("launch failed", zap.String("app", id), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"runningApp": NewRunningApp(rec),
	})
}

// Stop stops a running application. The path id may be an application id
// or the id returned by launch.
func (h *ApplicationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.supervisor.Stop(r.Context(), id); err != nil {
		if errors.Is(err, supervisor.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrNotFound, "Application not running")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Running lists running applications.
func (h *ApplicationHandler) Running(w http.ResponseWriter, r *http.Request) {
	records := h.supervisor.ListRunning()
	running := make([]RunningApp, 0, len(records))
	for _, rec := range records {
		running = append(running, NewRunningApp(rec))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": running,
	})
}

// Logs returns captured output of a running application.
func (h *ApplicationHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	lines := defaultLogLines
	if s := r.URL.Query().Get("lines"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "lines must be a positive integer")
			return
		}
		lines = n
	}
	if lines > maxLogLines {
		lines = maxLogLines
	}

	out, err := h.supervisor.Logs(id, lines)
	if err != nil {
		if errors.Is(err, supervisor.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrNotFound, "Application not running")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"appId":   id,
		"lines":   out,
	})
}
