// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockServer creates a test server that returns the given response.
func mockServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// jsonHandler creates a handler that writes body with statusCode.
func jsonHandler(body interface{}, statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(body)
	}
}

// errorHandler creates a handler that returns a wayout error body.
func errorHandler(code, message string, statusCode int) http.HandlerFunc {
	return jsonHandler(map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    code,
	}, statusCode)
}

func TestNew(t *testing.T) {
	c := New("http://localhost:3001/")

	if c.BaseURL() != "http://localhost:3001" {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), "http://localhost:3001")
	}
	if c.Applications == nil {
		t.Error("Applications client is nil")
	}
	if c.Events == nil {
		t.Error("Events client is nil")
	}
	if c.Crashes == nil {
		t.Error("Crashes client is nil")
	}
}

func TestNewWithOptions(t *testing.T) {
	hc := &http.Client{}
	c := New("http://localhost:3001", WithHTTPClient(hc), WithTimeout(5*time.Second))

	if c.httpClient != hc {
		t.Error("WithHTTPClient not applied")
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.httpClient.Timeout)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Code: ErrCodeNotFound, Message: "Application not found"}
	if err.Error() != "NOT_FOUND: Application not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = &APIError{Message: "boom"}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestHealth(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		jsonHandler(map[string]interface{}{
			"status":      "healthy",
			"uptime":      12.5,
			"timestamp":   "2026-01-02T03:04:05.678Z",
			"runningApps": 2,
		}, http.StatusOK)(w, r)
	})

	h, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.Status != "healthy" || h.RunningApps != 2 {
		t.Errorf("Health() = %+v", h)
	}
	if h.UptimeDuration() != 12500*time.Millisecond {
		t.Errorf("UptimeDuration() = %v", h.UptimeDuration())
	}
	if h.Timestamp.Nanosecond() != 678_000_000 {
		t.Errorf("Timestamp = %v", h.Timestamp)
	}
}

func TestApplicationClient_List(t *testing.T) {
	srv := mockServer(t, jsonHandler(map[string]interface{}{
		"applications": []map[string]interface{}{
			{"id": "calc", "name": "Calculator", "executable": "/usr/bin/gnome-calculator"},
			{"id": "term", "name": "Terminal", "executable": "foot", "args": []string{"--login"}, "pty": true},
		},
	}, http.StatusOK))

	apps, err := New(srv.URL).Applications.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len(apps) = %d, want 2", len(apps))
	}
	if apps[0].ID != "calc" || apps[1].Args[0] != "--login" || !apps[1].PTY {
		t.Errorf("List() = %+v", apps)
	}
}

func TestApplicationClient_Launch(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/applications/calc/launch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		jsonHandler(map[string]interface{}{
			"success": true,
			"runningApp": map[string]interface{}{
				"id":        "app_0b5e",
				"appId":     "calc",
				"pid":       4242,
				"startedAt": "2026-01-02T03:04:05.678Z",
			},
		}, http.StatusOK)(w, r)
	})

	app, err := New(srv.URL).Applications.Launch(context.Background(), "calc")
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if app.ID != "app_0b5e" || app.AppID != "calc" || app.PID != 4242 {
		t.Errorf("Launch() = %+v", app)
	}
	if app.StartedAt.IsZero() {
		t.Error("StartedAt not parsed")
	}
}

func TestApplicationClient_LaunchErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		status int
	}{
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"already running", ErrCodeAlreadyRunning, http.StatusBadRequest},
		{"spawn failed", ErrCodeSpawnFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := mockServer(t, errorHandler(tt.code, "failed", tt.status))

			_, err := New(srv.URL).Applications.Launch(context.Background(), "calc")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Code != tt.code || apiErr.StatusCode != tt.status || apiErr.Message != "failed" {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestApplicationClient_Stop(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "/calc/stop") {
			jsonHandler(map[string]interface{}{"success": true}, http.StatusOK)(w, r)
			return
		}
		errorHandler(ErrCodeNotFound, "Application not running", http.StatusNotFound)(w, r)
	})

	c := New(srv.URL)
	if err := c.Applications.Stop(context.Background(), "calc"); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	err := c.Applications.Stop(context.Background(), "term")
	if !IsNotFound(err) {
		t.Errorf("Stop() error = %v, want NOT_FOUND", err)
	}
}

func TestApplicationClient_Running(t *testing.T) {
	srv := mockServer(t, jsonHandler(map[string]interface{}{
		"running": []map[string]interface{}{
			{"id": "app_1", "appId": "calc", "pid": 10, "startedAt": "2026-01-02T03:04:05.000Z"},
		},
	}, http.StatusOK))

	running, err := New(srv.URL).Applications.Running(context.Background())
	if err != nil {
		t.Fatalf("Running() error = %v", err)
	}
	if len(running) != 1 || running[0].AppID != "calc" {
		t.Errorf("Running() = %+v", running)
	}
}

func TestApplicationClient_Logs(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lines"); got != "5" {
			t.Errorf("lines = %q, want 5", got)
		}
		jsonHandler(map[string]interface{}{
			"success": true,
			"appId":   "calc",
			"lines":   []string{"a", "b"},
		}, http.StatusOK)(w, r)
	})

	lines, err := New(srv.URL).Applications.Logs(context.Background(), "calc", 5)
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if len(lines) != 2 || lines[1] != "b" {
		t.Errorf("Logs() = %v", lines)
	}
}

func TestNonJSONError(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := New(srv.URL).Applications.List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status 502", err)
	}
}

func TestEventClient_List(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "10" || q.Get("appId") != "calc" || q["type"][0] != "application.*" {
			t.Errorf("query = %v", q)
		}
		jsonHandler(map[string]interface{}{
			"events": []map[string]interface{}{
				{"id": "e1", "type": EventAppLaunched, "timestamp": time.Now(), "appId": "calc"},
			},
		}, http.StatusOK)(w, r)
	})

	events, err := New(srv.URL).Events.List(context.Background(), &ListOptions{
		Limit: 10,
		Types: []string{"application.*"},
		AppID: "calc",
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 || events[0].Type != EventAppLaunched {
		t.Errorf("List() = %+v", events)
	}
}

func TestEventClient_Stream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events/ws" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("pattern"); got != "application.*" {
			t.Errorf("pattern = %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, typ := range []string{EventAppLaunched, EventAppExited} {
			conn.WriteJSON(Event{ID: typ, Type: typ, AppID: "calc"})
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	var got []string
	err := New(srv.URL).Events.Stream(context.Background(), "application.*", func(e Event) error {
		got = append(got, e.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if len(got) != 2 || got[1] != EventAppExited {
		t.Errorf("events = %v", got)
	}
}

func TestEventClient_StreamCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		done <- New(srv.URL).Events.Stream(ctx, "", func(Event) error { return nil })
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stream() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stream() did not return after cancel")
	}
}

func TestCrashClient_List(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/crashes" || r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		jsonHandler(map[string]interface{}{
			"crashes": []map[string]interface{}{
				{"id": "20260115-100000.000-calc", "appId": "calc", "exitCode": 1, "reason": "display", "details": "cannot open display"},
			},
		}, http.StatusOK)(w, r)
	})

	crashes, err := New(srv.URL).Crashes.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(crashes) != 1 || crashes[0].AppID != "calc" || crashes[0].Reason != "display" {
		t.Errorf("List() = %+v", crashes)
	}
}

func TestCrashClient_GetAndNewest(t *testing.T) {
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/crashes/newest":
			jsonHandler(map[string]interface{}{"crash": nil}, http.StatusOK)(w, r)
		case "/api/crashes/20260115-100000.000-calc":
			jsonHandler(map[string]interface{}{
				"crash": map[string]interface{}{
					"id":       "20260115-100000.000-calc",
					"appId":    "calc",
					"pid":      321,
					"exitCode": 2,
					"reason":   "panic",
					"output":   []string{"panic: boom"},
				},
			}, http.StatusOK)(w, r)
		default:
			errorHandler(ErrCodeNotFound, "Crash report not found", http.StatusNotFound)(w, r)
		}
	})
	c := New(srv.URL)

	crash, err := c.Crashes.Get(context.Background(), "20260115-100000.000-calc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if crash.PID != 321 || crash.Reason != "panic" || len(crash.Output) != 1 {
		t.Errorf("Get() = %+v", crash)
	}

	newest, err := c.Crashes.Newest(context.Background())
	if err != nil {
		t.Fatalf("Newest() error = %v", err)
	}
	if newest != nil {
		t.Errorf("Newest() = %+v, want nil", newest)
	}

	_, err = c.Crashes.Get(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("Get(missing) error = %v, want not found", err)
	}
}

func TestCrashClient_DeleteAndClear(t *testing.T) {
	var paths []string
	srv := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		paths = append(paths, r.URL.Path)
		jsonHandler(map[string]interface{}{"success": true}, http.StatusOK)(w, r)
	})
	c := New(srv.URL)

	if err := c.Crashes.Delete(context.Background(), "20260115-100000.000-calc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Crashes.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	want := []string{"/api/crashes/20260115-100000.000-calc", "/api/crashes"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}
