// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus collectors for the launcher.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wayout"

// Metrics holds all Prometheus collectors. Each instance owns its registry
// so several can coexist in one test binary.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Application metrics
	RegistryApps   prometheus.Gauge
	AppsRunning    prometheus.Gauge
	Launches       *prometheus.CounterVec
	LaunchFailures *prometheus.CounterVec
	Stops          *prometheus.CounterVec
	Exits          *prometheus.CounterVec
	ForcedKills    *prometheus.CounterVec
	Crashes        *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
}

// New creates a metrics collector with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),

		RegistryApps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_apps",
			Help:      "Number of applications in the catalog",
		}),
		AppsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps_running",
			Help:      "Number of applications currently tracked as running",
		}),
		Launches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_launches_total",
			Help:      "Total number of successful launches",
		}, []string{"app"}),
		LaunchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_launch_failures_total",
			Help:      "Total number of launches that failed to spawn",
		}, []string{"app"}),
		Stops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_stops_total",
			Help:      "Total number of explicit stops",
		}, []string{"app"}),
		Exits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_exits_total",
			Help:      "Total number of observed process exits",
		}, []string{"app"}),
		ForcedKills: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_forced_kills_total",
			Help:      "Total number of SIGKILL escalations",
		}, []string{"app"}),
		Crashes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "app_crashes_total",
			Help:      "Total number of unrequested abnormal exits",
		}, []string{"app"}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Number of open event WebSocket connections",
		}),
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// AppLaunched records a successful spawn.
func (m *Metrics) AppLaunched(appID string) { m.Launches.WithLabelValues(appID).Inc() }

// LaunchFailed records a spawn failure.
func (m *Metrics) LaunchFailed(appID string) { m.LaunchFailures.WithLabelValues(appID).Inc() }

// AppStopped records an explicit stop.
func (m *Metrics) AppStopped(appID string) { m.Stops.WithLabelValues(appID).Inc() }

// AppExited records a reaped process.
func (m *Metrics) AppExited(appID string) { m.Exits.WithLabelValues(appID).Inc() }

// AppKilled records a forced kill.
func (m *Metrics) AppKilled(appID string) { m.ForcedKills.WithLabelValues(appID).Inc() }

// AppCrashed records an unrequested abnormal exit.
func (m *Metrics) AppCrashed(appID string) { m.Crashes.WithLabelValues(appID).Inc() }

// SetRunning sets the running gauge.
func (m *Metrics) SetRunning(n int) { m.AppsRunning.Set(float64(n)) }
