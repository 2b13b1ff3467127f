// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown application or one with no running record.
	ErrNotFound = errors.New("application not found")

	// ErrAlreadyRunning is returned when launching an application that already has a record.
	ErrAlreadyRunning = errors.New("application already running")
)

// SpawnError reports that the OS refused to start the process.
type SpawnError struct {
	AppID string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.AppID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
