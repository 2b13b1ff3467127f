// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"time"
)

// Application is a catalog entry.
type Application struct {
	// ID is the unique application id used in API paths.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`

	// Executable is the program path launched by the server.
	Executable string `json:"executable"`

	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	WorkDir string            `json:"workDir,omitempty"`

	// PTY reports whether the program runs attached to a pseudo-terminal.
	PTY bool `json:"pty,omitempty"`
}

// RunningApp is a running application as reported by the server.
type RunningApp struct {
	// ID is the display label assigned at launch (app_<uuid>). It can be
	// passed to Stop and Logs in place of the application id.
	ID string `json:"id"`

	// AppID is the catalog id of the application.
	AppID string `json:"appId"`

	// PID is the OS process id.
	PID int `json:"pid"`

	// StartedAt is the launch time.
	StartedAt time.Time `json:"startedAt"`
}

// Health is the server liveness report.
type Health struct {
	Status string `json:"status"`

	// Uptime is the server uptime in seconds.
	Uptime float64 `json:"uptime"`

	Timestamp   time.Time `json:"timestamp"`
	RunningApps int       `json:"runningApps"`
}

// UptimeDuration returns Uptime as a time.Duration.
func (h Health) UptimeDuration() time.Duration {
	return time.Duration(h.Uptime * float64(time.Second))
}

// Event is an entry from the server event log.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	AppID     string                 `json:"appId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Event types published by the server.
const (
	EventAppLaunched      = "application.launched"
	EventAppLaunchFailed  = "application.launch_failed"
	EventAppStopped       = "application.stopped"
	EventAppExited        = "application.exited"
	EventAppKilled        = "application.killed"
	EventAppCrashed       = "application.crashed"
	EventAppBinaryChanged = "application.binary_changed"
)

// Error codes returned in APIError.Code.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyRunning   = "ALREADY_RUNNING"
	ErrCodeSpawnFailed      = "SPAWN_FAILED"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// CrashSummary is the listing form of a crash report.
type CrashSummary struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	Timestamp time.Time `json:"timestamp"`
	ExitCode  int       `json:"exitCode"`
	Signal    string    `json:"signal,omitempty"`
	Reason    string    `json:"reason"`
	Details   string    `json:"details,omitempty"`
}

// Crash is a report of an application that exited abnormally without being
// asked to.
type Crash struct {
	Version    string    `json:"version"`
	ID         string    `json:"id"`
	AppID      string    `json:"appId"`
	Label      string    `json:"label"`
	PID        int       `json:"pid"`
	Executable string    `json:"executable"`
	Timestamp  time.Time `json:"timestamp"`
	ExitCode   int       `json:"exitCode"`
	Signal     string    `json:"signal,omitempty"`
	Uptime     float64   `json:"uptime"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Location   string    `json:"location,omitempty"`
	StackTrace []string  `json:"stackTrace,omitempty"`
	Output     []string  `json:"output"`
	Trigger    string    `json:"trigger"`
}
