// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sort"
	"sync"
	"time"
)

// HistoryConfig configures event history.
type HistoryConfig struct {
	MaxEvents int
	MaxAge    time.Duration
}

// History keeps recent events, bounded by count and age.
type History struct {
	mu        sync.RWMutex
	events    []Event
	maxEvents int
	maxAge    time.Duration
}

// NewHistory creates a new event history.
func NewHistory(cfg HistoryConfig) *History {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 1000
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	return &History{
		events:    make([]Event, 0),
		maxEvents: cfg.MaxEvents,
		maxAge:    cfg.MaxAge,
	}
}

// Add stores an event in history.
func (h *History) Add(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, event)
	if len(h.events) > h.maxEvents {
		h.events = h.events[len(h.events)-h.maxEvents:]
	}
}

// Query retrieves events matching filter, oldest first.
func (h *History) Query(filter EventFilter) []Event {
	h.mu.RLock()
	result := make([]Event, 0)
	for _, event := range h.events {
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	h.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}

	return result
}

func matchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 && !MatchAny(event.Type, filter.Types) {
		return false
	}
	if filter.AppID != "" && event.AppID != filter.AppID {
		return false
	}
	if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && event.Timestamp.After(filter.Until) {
		return false
	}
	return true
}

// Prune drops events older than max age.
func (h *History) Prune() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-h.maxAge)
	kept := h.events[:0]
	for _, event := range h.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	h.events = kept
}

// Len returns the number of retained events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}
