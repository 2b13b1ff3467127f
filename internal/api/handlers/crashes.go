// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wingedpig/wayout/internal/crashes"
	"go.uber.org/zap"
)

// CrashStore is the crash report store as seen by the HTTP layer.
type CrashStore interface {
	List() ([]crashes.Summary, error)
	Get(id string) (*crashes.Report, error)
	Newest() (*crashes.Report, error)
	Delete(id string) error
	Clear() error
}

// CrashHandler handles /api/crashes.
type CrashHandler struct {
	store CrashStore
	log   *zap.Logger
}

// NewCrashHandler creates a crash handler.
func NewCrashHandler(store CrashStore, logger *zap.Logger) *CrashHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CrashHandler{store: store, log: logger}
}

// List returns report summaries, newest first.
// GET /api/crashes
func (h *CrashHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List()
	if err != nil {
		h.log.Error("list crash reports", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []crashes.Summary{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"crashes": summaries,
	})
}

// Get returns one report.
// GET /api/crashes/{id}
func (h *CrashHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"crash": report,
	})
}

// Newest returns the most recent report; crash is null when there is none.
// GET /api/crashes/newest
func (h *CrashHandler) Newest(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.Newest()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"crash": report,
	})
}

// Delete removes one report.
// DELETE /api/crashes/{id}
func (h *CrashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(mux.Vars(r)["id"]); err != nil {
		h.writeStoreError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// Clear removes all reports.
// DELETE /api/crashes
func (h *CrashHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(); err != nil {
		h.writeStoreError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *CrashHandler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, crashes.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "Crash report not found")
		return
	}
	h.log.Error("crash report store", zap.Error(err))
	WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
}
