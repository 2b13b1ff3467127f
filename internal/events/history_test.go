// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_MaxEvents(t *testing.T) {
	h := NewHistory(HistoryConfig{MaxEvents: 3})

	base := time.Now()
	for i := 0; i < 5; i++ {
		h.Add(Event{ID: fmt.Sprint(i), Type: EventAppLaunched, Timestamp: base.Add(time.Duration(i) * time.Millisecond)})
	}

	got := h.Query(EventFilter{})
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "4", got[2].ID)
}

func TestHistory_Query_Filters(t *testing.T) {
	h := NewHistory(HistoryConfig{})

	base := time.Now().Add(-time.Minute)
	h.Add(Event{ID: "a", Type: EventAppLaunched, AppID: "calc", Timestamp: base})
	h.Add(Event{ID: "b", Type: EventAppExited, AppID: "calc", Timestamp: base.Add(10 * time.Second)})
	h.Add(Event{ID: "c", Type: EventAppLaunched, AppID: "term", Timestamp: base.Add(20 * time.Second)})
	h.Add(Event{ID: "d", Type: EventAppStopped, AppID: "term", Timestamp: base.Add(30 * time.Second)})

	ids := func(evts []Event) []string {
		out := make([]string, 0, len(evts))
		for _, e := range evts {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "c"}, ids(h.Query(EventFilter{Types: []string{EventAppLaunched}})))
	assert.Equal(t, []string{"c", "d"}, ids(h.Query(EventFilter{AppID: "term"})))
	assert.Equal(t, []string{"c", "d"}, ids(h.Query(EventFilter{Since: base.Add(15 * time.Second)})))
	assert.Equal(t, []string{"a", "b"}, ids(h.Query(EventFilter{Until: base.Add(15 * time.Second)})))
	assert.Equal(t, []string{"d"}, ids(h.Query(EventFilter{Limit: 1})))
	assert.Equal(t, []string{"b"}, ids(h.Query(EventFilter{Types: []string{"*.exited"}, AppID: "calc"})))
}

func TestHistory_Order(t *testing.T) {
	h := NewHistory(HistoryConfig{})

	now := time.Now()
	h.Add(Event{ID: "late", Type: EventAppLaunched, Timestamp: now})
	h.Add(Event{ID: "early", Type: EventAppLaunched, Timestamp: now.Add(-time.Second)})

	got := h.Query(EventFilter{})
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID)
}

func TestHistory_Prune(t *testing.T) {
	h := NewHistory(HistoryConfig{MaxAge: time.Minute})

	h.Add(Event{ID: "old", Type: EventAppLaunched, Timestamp: time.Now().Add(-2 * time.Minute)})
	h.Add(Event{ID: "new", Type: EventAppLaunched, Timestamp: time.Now()})

	h.Prune()

	got := h.Query(EventFilter{})
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, 1, h.Len())
}
