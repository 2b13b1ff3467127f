// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/wingedpig/wayout/internal/api/handlers"
	"github.com/wingedpig/wayout/internal/api/middleware"
	"github.com/wingedpig/wayout/internal/events"
	"github.com/wingedpig/wayout/internal/metrics"
	"go.uber.org/zap"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr string
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Catalog    handlers.Catalog
	Supervisor handlers.Supervisor
	EventBus   events.EventBus
	Crashes    handlers.CrashStore // optional
	Metrics    *metrics.Metrics    // optional
	Logger     *zap.Logger
	StartedAt  time.Time
	// UIDir, when set, is served at / behind the API routes.
	UIDir string
}

// NewRouter creates the API router.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	if deps.Metrics != nil {
		r.Use(metrics.Middleware(deps.Metrics))
	}

	healthHandler := handlers.NewHealthHandler(deps.StartedAt, deps.Supervisor)
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")

	appHandler := handlers.NewApplicationHandler(deps.Catalog, deps.Supervisor, logger)
	r.HandleFunc("/api/applications", appHandler.List).Methods("GET")
	r.HandleFunc("/api/applications/running", appHandler.Running).Methods("GET")
	r.HandleFunc("/api/applications/{id}/launch", appHandler.Launch).Methods("POST")
	r.HandleFunc("/api/applications/{id}/stop", appHandler.Stop).Methods("DELETE")
	r.HandleFunc("/api/applications/{id}/logs", appHandler.Logs).Methods("GET")

	if deps.EventBus != nil {
		var conns handlers.ConnTracker
		if deps.Metrics != nil {
			conns = deps.Metrics.WSConnections
		}
		eventHandler := handlers.NewEventHandler(deps.EventBus, conns, logger)
		r.HandleFunc("/api/events", eventHandler.History).Methods("GET")
		r.HandleFunc("/api/events/ws", eventHandler.WebSocket).Methods("GET")
	}

	if deps.Crashes != nil {
		crashHandler := handlers.NewCrashHandler(deps.Crashes, logger)
		r.HandleFunc("/api/crashes", crashHandler.List).Methods("GET")
		r.HandleFunc("/api/crashes", crashHandler.Clear).Methods("DELETE")
		r.HandleFunc("/api/crashes/newest", crashHandler.Newest).Methods("GET")
		r.HandleFunc("/api/crashes/{id}", crashHandler.Get).Methods("GET")
		r.HandleFunc("/api/crashes/{id}", crashHandler.Delete).Methods("DELETE")
	}

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	// Routes stay flat and the UI lives in NotFoundHandler: a subrouter
	// prefix or a catch-all route makes mux drop a method mismatch.
	if deps.UIDir != "" {
		r.NotFoundHandler = uiHandler(deps.UIDir)
	}

	return r
}

// uiHandler serves the static UI for GET and HEAD.
func uiHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			handlers.WriteError(w, http.StatusNotFound, handlers.ErrNotFound, "Not found")
			return
		}
		files.ServeHTTP(w, r)
	})
}

// NewHandler returns the router wrapped with CORS, ready to serve.
func NewHandler(deps Dependencies) http.Handler {
	return middleware.CORS(NewRouter(deps))
}

// Server represents the API server.
type Server struct {
	handler http.Handler
	cfg     ServerConfig
	server  *http.Server
	log     *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := NewHandler(deps)
	return &Server{
		handler: handler,
		cfg:     cfg,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger.Named("api"),
	}
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")

	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
