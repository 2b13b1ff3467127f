// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-process event bus that carries application
// lifecycle notifications to the UI.
package events

import (
	"context"
	"time"
)

// Event represents an immutable event record.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	AppID     string                 `json:"appId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// EventHandler processes received events.
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// EventFilter for querying event history.
type EventFilter struct {
	Types []string  // Event type patterns to match
	AppID string    // Filter by application id
	Since time.Time // Events after this time
	Until time.Time // Events before this time
	Limit int       // Maximum events to return (most recent kept)
}

// EventBus is the core event pub/sub system.
type EventBus interface {
	// Publish emits an event to all matching subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a synchronous handler for events matching pattern.
	Subscribe(pattern string, handler EventHandler) (SubscriptionID, error)

	// SubscribeAsync registers an async handler with buffered channel.
	SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History retrieves past events matching filter.
	History(filter EventFilter) ([]Event, error)

	// Close shuts down the event bus.
	Close() error
}

// Application lifecycle events.
const (
	EventAppLaunched      = "application.launched"
	EventAppLaunchFailed  = "application.launch_failed"
	EventAppStopped       = "application.stopped"
	EventAppExited        = "application.exited"
	EventAppKilled        = "application.killed"
	EventAppCrashed       = "application.crashed"
	EventAppBinaryChanged = "application.binary_changed"
)
