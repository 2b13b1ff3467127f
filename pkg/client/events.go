// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// EventClient provides access to the wayout event log.
//
// Access this client through [Client.Events]:
//
//	events, err := client.Events.List(ctx, &client.ListOptions{Limit: 50})
type EventClient struct {
	c *Client
}

// ListOptions configures event listing.
type ListOptions struct {
	// Limit is the maximum number of events to return; the most recent are kept.
	Limit int

	// Types filters to these event type patterns (e.g., "application.*").
	Types []string

	// AppID filters to events of one application.
	AppID string

	// Since filters to events after this time.
	Since time.Time

	// Until filters to events before this time.
	Until time.Time
}

// List returns events from the event log, oldest first.
func (e *EventClient) List(ctx context.Context, opts *ListOptions) ([]Event, error) {
	path := "/api/events"

	if opts != nil {
		params := url.Values{}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		for _, t := range opts.Types {
			params.Add("type", t)
		}
		if opts.AppID != "" {
			params.Set("appId", opts.AppID)
		}
		if !opts.Since.IsZero() {
			params.Set("since", opts.Since.Format(time.RFC3339))
		}
		if !opts.Until.IsZero() {
			params.Set("until", opts.Until.Format(time.RFC3339))
		}
		if len(params) > 0 {
			path += "?" + params.Encode()
		}
	}

	var resp struct {
		Events []Event `json:"events"`
	}
	if err := e.c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Stream connects to the live event stream and calls fn for each event
// whose type matches pattern ("" means all). It blocks until ctx is
// cancelled, the connection drops or fn returns an error. Cancellation
// returns nil.
func (e *EventClient) Stream(ctx context.Context, pattern string, fn func(Event) error) error {
	u, err := url.Parse(e.c.baseURL + "/api/events/ws")
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if pattern != "" {
		u.RawQuery = url.Values{"pattern": {pattern}}.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("event stream: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("event stream: %w", err)
	}
	defer conn.Close()

	// Unblock ReadJSON on cancellation.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
