// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wingedpig/wayout/internal/events"
	"go.uber.org/zap"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConnTracker counts open websocket connections. prometheus.Gauge satisfies it.
type ConnTracker interface {
	Inc()
	Dec()
}

// EventHandler handles event-related API requests.
type EventHandler struct {
	bus   events.EventBus
	conns ConnTracker
	log   *zap.Logger
}

// NewEventHandler creates a new event handler. conns may be nil.
func NewEventHandler(bus events.EventBus, conns ConnTracker, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{bus: bus, conns: conns, log: logger}
}

// History returns past lifecycle events.
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := events.EventFilter{
		Types: query["type"],
		AppID: query.Get("appId"),
	}

	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if s := query.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid since")
			return
		}
		filter.Since = t
	}
	if s := query.Get("until"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid until")
			return
		}
		filter.Until = t
	}

	list, err := h.bus.History(filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	if list == nil {
		list = []events.Event{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": list,
	})
}

// WebSocket streams events matching ?pattern= (default all) until the
// client goes away.
func (h *EventHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}
	if _, err := events.CompilePattern(pattern); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.conns != nil {
		h.conns.Inc()
		defer h.conns.Dec()
	}

	eventCh := make(chan events.Event, 100)
	done := make(chan struct{})

	subID, err := h.bus.SubscribeAsync(pattern, func(_ context.Context, event events.Event) error {
		select {
		case eventCh <- event:
		case <-done:
		default:
			// Slow client; drop.
		}
		return nil
	}, 100)
	if err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer h.bus.Unsubscribe(subID)

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	// Reads only detect close.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-eventCh:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
