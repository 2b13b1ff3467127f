// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wingedpig/wayout/internal/crashes"
	"github.com/wingedpig/wayout/internal/events"
)

func newCrashRouter(store CrashStore) *mux.Router {
	h := NewCrashHandler(store, nil)

	r := mux.NewRouter()
	r.HandleFunc("/api/crashes", h.List).Methods("GET")
	r.HandleFunc("/api/crashes", h.Clear).Methods("DELETE")
	r.HandleFunc("/api/crashes/newest", h.Newest).Methods("GET")
	r.HandleFunc("/api/crashes/{id}", h.Get).Methods("GET")
	r.HandleFunc("/api/crashes/{id}", h.Delete).Methods("DELETE")
	return r
}

func newCrashStore(t *testing.T) *crashes.Manager {
	t.Helper()
	store, err := crashes.NewManager(crashes.Config{ReportsDir: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	return store
}

func captureCrash(t *testing.T, store *crashes.Manager, appID string, ts time.Time) *crashes.Report {
	t.Helper()
	report, err := store.Capture(events.Event{
		Type:      events.EventAppCrashed,
		Timestamp: ts,
		AppID:     appID,
		Payload: map[string]interface{}{
			"id":       "app_1",
			"pid":      99,
			"exitCode": 1,
			"output":   []string{"cannot open display: :0"},
		},
	})
	require.NoError(t, err)
	return report
}

func TestCrashHandler_ListAndGet(t *testing.T) {
	store := newCrashStore(t)
	first := captureCrash(t, store, "calc", time.Now().Add(-time.Second))
	second := captureCrash(t, store, "term", time.Now())
	r := newCrashRouter(store)

	rec, body := do(t, r, "GET", "/api/crashes")
	assert.Equal(t, http.StatusOK, rec.Code)
	list := body["crashes"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].(map[string]interface{})["id"])
	assert.Equal(t, "display", list[0].(map[string]interface{})["reason"])

	rec, body = do(t, r, "GET", "/api/crashes/"+first.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	crash := body["crash"].(map[string]interface{})
	assert.Equal(t, "calc", crash["appId"])
	assert.Equal(t, []interface{}{"cannot open display: :0"}, crash["output"])

	rec, body = do(t, r, "GET", "/api/crashes/newest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "term", body["crash"].(map[string]interface{})["appId"])
}

func TestCrashHandler_Empty(t *testing.T) {
	r := newCrashRouter(newCrashStore(t))

	rec, body := do(t, r, "GET", "/api/crashes")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["crashes"])

	rec, body = do(t, r, "GET", "/api/crashes/newest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "crash")
	assert.Nil(t, body["crash"])
}

func TestCrashHandler_NotFound(t *testing.T) {
	r := newCrashRouter(newCrashStore(t))

	rec, body := do(t, r, "GET", "/api/crashes/20260101-000000.000-calc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"success": false,
		"error":   "Crash report not found",
		"code":    ErrNotFound,
	}, body)

	rec, _ = do(t, r, "DELETE", "/api/crashes/20260101-000000.000-calc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrashHandler_DeleteAndClear(t *testing.T) {
	store := newCrashStore(t)
	first := captureCrash(t, store, "calc", time.Now().Add(-time.Second))
	captureCrash(t, store, "term", time.Now())
	r := newCrashRouter(store)

	rec, body := do(t, r, "DELETE", "/api/crashes/"+first.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	summaries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	rec, _ = do(t, r, "DELETE", "/api/crashes")
	assert.Equal(t, http.StatusOK, rec.Code)

	summaries, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

type failingCrashStore struct{}

func (failingCrashStore) List() ([]crashes.Summary, error)    { return nil, errors.New("disk gone") }
func (failingCrashStore) Get(string) (*crashes.Report, error) { return nil, errors.New("disk gone") }
func (failingCrashStore) Newest() (*crashes.Report, error)    { return nil, errors.New("disk gone") }
func (failingCrashStore) Delete(string) error                 { return errors.New("disk gone") }
func (failingCrashStore) Clear() error                        { return errors.New("disk gone") }

func TestCrashHandler_StoreFailure(t *testing.T) {
	r := newCrashRouter(failingCrashStore{})

	for _, path := range []string{"/api/crashes", "/api/crashes/newest", "/api/crashes/x"} {
		rec, body := do(t, r, "GET", path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, ErrInternalError, body["code"], path)
	}

	rec, _ := do(t, r, "DELETE", "/api/crashes")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
