// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"sync"
	"time"
)

const defaultDebounce = 250 * time.Millisecond

// debouncer collapses bursts of calls per key into one call after a quiet
// period. Writing a binary usually produces several fsnotify events.
type debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timers   map[string]*time.Timer
	stopped  bool
}

func newDebouncer(d time.Duration) *debouncer {
	if d <= 0 {
		d = defaultDebounce
	}
	return &debouncer{
		duration: d,
		timers:   make(map[string]*time.Timer),
	}
}

// trigger (re)arms the timer for key.
func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		// A newer trigger may have replaced this timer.
		if d.timers[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

func (d *debouncer) cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *debouncer) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// stop cancels everything and ignores later triggers.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
