// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package crashes

import "time"

// Reason categorizes why an application crashed.
type Reason string

const (
	ReasonNone    Reason = "none"
	ReasonPanic   Reason = "panic"
	ReasonFatal   Reason = "fatal"
	ReasonDisplay Reason = "display" // could not reach the display server
	ReasonOOM     Reason = "oom"
	ReasonSignal  Reason = "signal"
	ReasonError   Reason = "error"
	ReasonUnknown Reason = "unknown"
)

// Report is a captured crash of one application process.
type Report struct {
	Version    string    `json:"version"`
	ID         string    `json:"id"` // <timestamp>-<appId>
	AppID      string    `json:"appId"`
	Label      string    `json:"label"`
	PID        int       `json:"pid"`
	Executable string    `json:"executable"`
	Timestamp  time.Time `json:"timestamp"`
	ExitCode   int       `json:"exitCode"`
	Signal     string    `json:"signal,omitempty"`
	Uptime     float64   `json:"uptime"` // seconds
	Reason     Reason    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Location   string    `json:"location,omitempty"`
	StackTrace []string  `json:"stackTrace,omitempty"`
	Output     []string  `json:"output"` // last captured lines, oldest first
	Trigger    string    `json:"trigger"`
}

// Summary is the listing form of a Report.
type Summary struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	Timestamp time.Time `json:"timestamp"`
	ExitCode  int       `json:"exitCode"`
	Signal    string    `json:"signal,omitempty"`
	Reason    Reason    `json:"reason"`
	Details   string    `json:"details,omitempty"`
}

func (r *Report) summary() Summary {
	return Summary{
		ID:        r.ID,
		AppID:     r.AppID,
		Timestamp: r.Timestamp,
		ExitCode:  r.ExitCode,
		Signal:    r.Signal,
		Reason:    r.Reason,
		Details:   r.Details,
	}
}
