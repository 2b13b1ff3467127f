// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wingedpig/wayout/pkg/client"
)

// setupServer points the CLI at a fake wayout server and captures output.
func setupServer(t *testing.T) *bytes.Buffer {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/api/applications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"applications": []map[string]interface{}{
				{"id": "calc", "name": "Calculator", "category": "utilities", "executable": "/usr/bin/gnome-calculator"},
				{"id": "term", "name": "Terminal", "executable": "foot", "args": []string{"--login"}},
			},
		})
	})
	mux.HandleFunc("/api/applications/running", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"running": []map[string]interface{}{
				{"id": "app_1", "appId": "calc", "pid": 321, "startedAt": time.Now().Add(-90 * time.Second).Format(time.RFC3339)},
			},
		})
	})
	mux.HandleFunc("/api/applications/calc/launch", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 400, map[string]interface{}{"success": false, "error": "Application already running", "code": "ALREADY_RUNNING"})
	})
	mux.HandleFunc("/api/applications/term/launch", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"success":    true,
			"runningApp": map[string]interface{}{"id": "app_2", "appId": "term", "pid": 99, "startedAt": time.Now().Format(time.RFC3339)},
		})
	})
	mux.HandleFunc("/api/applications/calc/stop", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"success": true})
	})
	mux.HandleFunc("/api/applications/calc/logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"success": true,
			"appId":   "calc",
			"lines":   []string{"starting", "error: no display", "ready"},
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"status": "healthy", "uptime": 3725.0, "timestamp": time.Now(), "runningApps": 1})
	})
	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appId") != "calc" {
			t.Errorf("appId = %q, want calc", r.URL.Query().Get("appId"))
		}
		writeJSON(w, 200, map[string]interface{}{
			"events": []map[string]interface{}{
				{"id": "e1", "type": "application.exited", "timestamp": time.Now(), "appId": "calc", "payload": map[string]interface{}{"pid": 321, "exitCode": 0}},
			},
		})
	})

	mux.HandleFunc("/api/crashes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			writeJSON(w, 200, map[string]interface{}{"success": true})
			return
		}
		writeJSON(w, 200, map[string]interface{}{
			"crashes": []map[string]interface{}{
				{"id": "20260115-100000.000-calc", "appId": "calc", "exitCode": 1, "reason": "display", "details": "cannot open display: :0"},
			},
		})
	})
	mux.HandleFunc("/api/crashes/newest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{"crash": nil})
	})
	mux.HandleFunc("/api/crashes/20260115-100000.000-calc", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]interface{}{
			"crash": map[string]interface{}{
				"id": "20260115-100000.000-calc", "appId": "calc", "pid": 321, "exitCode": 1,
				"uptime": 2.0, "reason": "display", "details": "cannot open display: :0",
				"output": []string{"starting", "cannot open display: :0"},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	prevClient, prevOut, prevJSON := apiClient, stdout, jsonOutput
	t.Cleanup(func() {
		apiClient, stdout, jsonOutput = prevClient, prevOut, prevJSON
	})

	var out bytes.Buffer
	apiClient = client.New(srv.URL)
	stdout = &out
	jsonOutput = false
	return &out
}

func TestCmdApps(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "apps", nil); err != nil {
		t.Fatalf("apps error = %v", err)
	}
	if !strings.Contains(out.String(), "Calculator") || !strings.Contains(out.String(), "foot --login") {
		t.Errorf("apps output:\n%s", out.String())
	}
}

func TestCmdRunning(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "running", nil); err != nil {
		t.Fatalf("running error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "calc") || !strings.Contains(got, "321") || !strings.Contains(got, "app_1") {
		t.Errorf("running output:\n%s", got)
	}
}

func TestCmdLaunch(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "launch", []string{"term"}); err != nil {
		t.Fatalf("launch error = %v", err)
	}
	if !strings.Contains(out.String(), "Launched term (pid 99, app_2)") {
		t.Errorf("launch output: %q", out.String())
	}

	err := run(context.Background(), "launch", []string{"calc"})
	if err == nil || !strings.Contains(err.Error(), "ALREADY_RUNNING") {
		t.Errorf("launch calc error = %v, want ALREADY_RUNNING", err)
	}

	if err := run(context.Background(), "launch", nil); err == nil {
		t.Error("launch without id should fail")
	}
}

func TestCmdStop(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "stop", []string{"calc"}); err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "Stopped calc" {
		t.Errorf("stop output: %q", out.String())
	}
}

func TestCmdLogs(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "logs", []string{"calc", "-n", "10", "-grep", "^err"}); err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "error: no display" {
		t.Errorf("logs output: %q", out.String())
	}

	if err := run(context.Background(), "logs", []string{"calc", "-n", "x"}); err == nil {
		t.Error("invalid -n should fail")
	}
	if err := run(context.Background(), "logs", []string{"calc", "-grep", "("}); err == nil {
		t.Error("invalid -grep should fail")
	}
}

func TestCmdHealth_JSON(t *testing.T) {
	out := setupServer(t)
	jsonOutput = true

	if err := run(context.Background(), "health", nil); err != nil {
		t.Fatalf("health error = %v", err)
	}

	var h client.Health
	if err := json.Unmarshal(out.Bytes(), &h); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out.String())
	}
	if h.Status != "healthy" || h.RunningApps != 1 {
		t.Errorf("health = %+v", h)
	}
}

func TestCmdEvents(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "events", []string{"-app", "calc", "-n", "5", "-since", "1h"}); err != nil {
		t.Fatalf("events error = %v", err)
	}
	if !strings.Contains(out.String(), "application.exited") || !strings.Contains(out.String(), "exitCode=0 pid=321") {
		t.Errorf("events output:\n%s", out.String())
	}

	if err := run(context.Background(), "events", []string{"-since", "someday"}); err == nil {
		t.Error("invalid -since should fail")
	}
	if err := run(context.Background(), "events", []string{"-bogus"}); err == nil {
		t.Error("unknown option should fail")
	}
}

func TestCmdCrash(t *testing.T) {
	out := setupServer(t)

	if err := run(context.Background(), "crash", []string{"list"}); err != nil {
		t.Fatalf("crash list error = %v", err)
	}
	if !strings.Contains(out.String(), "20260115-100000.000-calc") || !strings.Contains(out.String(), "display") {
		t.Errorf("crash list output:\n%s", out.String())
	}

	out.Reset()
	if err := run(context.Background(), "crash", []string{"20260115-100000.000-calc"}); err != nil {
		t.Fatalf("crash get error = %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Reason:     display: cannot open display: :0") || !strings.Contains(got, "  starting") {
		t.Errorf("crash get output:\n%s", got)
	}

	out.Reset()
	if err := run(context.Background(), "crash", []string{"newest"}); err != nil {
		t.Fatalf("crash newest error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "No crashes recorded" {
		t.Errorf("crash newest output: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), "crash", []string{"clear"}); err != nil {
		t.Fatalf("crash clear error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "Cleared all crashes" {
		t.Errorf("crash clear output: %q", out.String())
	}

	if err := run(context.Background(), "crash", []string{"delete"}); err == nil {
		t.Error("crash delete without id should fail")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	setupServer(t)

	if err := run(context.Background(), "restart", nil); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		eventType string
		patterns  []string
		want      bool
	}{
		{"application.exited", []string{"*"}, true},
		{"application.exited", []string{"application.*"}, true},
		{"application.exited", []string{"*.exited"}, true},
		{"application.exited", []string{"application.launched", "application.exited"}, true},
		{"application.exited", []string{"application.launched"}, false},
		{"application.exited", []string{"*.killed"}, false},
	}

	for _, tt := range tests {
		if got := matchesAny(tt.eventType, tt.patterns); got != tt.want {
			t.Errorf("matchesAny(%q, %v) = %v, want %v", tt.eventType, tt.patterns, got, tt.want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{3725 * time.Second, "1h2m"},
	}

	for _, tt := range tests {
		if got := formatUptime(tt.d); got != tt.want {
			t.Errorf("formatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
