// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// Error codes
const (
	ErrNotFound         = "NOT_FOUND"
	ErrAlreadyRunning   = "ALREADY_RUNNING"
	ErrSpawnFailed      = "SPAWN_FAILED"
	ErrBadRequest       = "BAD_REQUEST"
	ErrMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrInternalError    = "INTERNAL_ERROR"
)

// timeFormat matches JavaScript's Date.toISOString.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// WriteJSON writes data as the response body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// MethodNotAllowed answers a known path requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed, "Method not allowed")
}
