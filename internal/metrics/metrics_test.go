// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Independent(t *testing.T) {
	a := New()
	b := New()

	a.AppLaunched("calc")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Launches.WithLabelValues("calc")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Launches.WithLabelValues("calc")))
}

func TestMetrics_AppCounters(t *testing.T) {
	m := New()

	m.AppLaunched("calc")
	m.AppLaunched("calc")
	m.LaunchFailed("broken")
	m.AppStopped("calc")
	m.AppExited("calc")
	m.AppKilled("calc")
	m.AppCrashed("calc")
	m.SetRunning(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Launches.WithLabelValues("calc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LaunchFailures.WithLabelValues("broken")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stops.WithLabelValues("calc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exits.WithLabelValues("calc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForcedKills.WithLabelValues("calc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Crashes.WithLabelValues("calc")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AppsRunning))
}

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	m := New()

	r := mux.NewRouter()
	r.Use(Middleware(m))
	r.HandleFunc("/api/applications/{id}/launch", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}).Methods("POST")

	for _, id := range []string{"calc", "term"} {
		req := httptest.NewRequest("POST", "/api/applications/"+id+"/launch", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.RequestsTotal.WithLabelValues("POST", "/api/applications/{id}/launch", "400")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.AppLaunched("calc")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), `wayout_app_launches_total{app="calc"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
