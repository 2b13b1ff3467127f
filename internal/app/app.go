// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the catalog, supervisor, event bus and HTTP facade
// together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/wayout/internal/api"
	"github.com/wingedpig/wayout/internal/catalog"
	"github.com/wingedpig/wayout/internal/config"
	"github.com/wingedpig/wayout/internal/crashes"
	"github.com/wingedpig/wayout/internal/events"
	"github.com/wingedpig/wayout/internal/logging"
	"github.com/wingedpig/wayout/internal/metrics"
	"github.com/wingedpig/wayout/internal/supervisor"
	"github.com/wingedpig/wayout/internal/watcher"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App is the main application container.
type App struct {
	mu sync.Mutex

	version    string
	configPath string
	addr       string
	env        *config.Env
	config     *config.Config
	log        *zap.Logger
	ownsLogger bool

	registry   *catalog.Registry
	eventBus   *events.MemoryEventBus
	metrics    *metrics.Metrics
	supervisor *supervisor.Supervisor
	watcher    *watcher.ExecutableWatcher
	crashes    *crashes.Manager
	apiServer  *api.Server
	listener   net.Listener

	done     chan struct{}
	stopOnce sync.Once
	shutOnce sync.Once
}

// Options holds configuration options for the app. Non-zero fields override
// the environment.
type Options struct {
	ConfigPath string
	Host       string
	Port       int
	// Addr, when set, replaces Host and Port entirely.
	Addr    string
	Version string
	// Logger replaces the logger built from LOG_LEVEL and LOG_DEV.
	Logger *zap.Logger
}

// New loads the environment and the catalog file. Any failure here is a
// configuration failure and should abort startup.
func New(opts Options) (*App, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	app := &App{
		version: opts.Version,
		env:     env,
		log:     opts.Logger,
		done:    make(chan struct{}),
	}

	if app.log == nil {
		app.log, err = logging.New(logging.Config{
			Level:       env.LogLevel,
			Development: env.LogDev,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		app.ownsLogger = true
	}

	if opts.Host != "" {
		env.Host = opts.Host
	}
	if opts.Port > 0 {
		env.Port = opts.Port
	}
	app.addr = env.Addr()
	if opts.Addr != "" {
		app.addr = opts.Addr
	}

	loader := config.NewLoader()
	path := opts.ConfigPath
	if path == "" {
		path = env.ConfigPath
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path, err = loader.FindConfig(cwd)
		if err != nil {
			return nil, err
		}
	}
	app.configPath = path

	cfg, err := loader.LoadWithDefaults(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.config = cfg

	return app, nil
}

// Initialize builds every component. It does not start listening.
func (app *App) Initialize(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	cfg := app.config

	registry, err := catalog.New(cfg.Applications)
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}
	app.registry = registry
	app.checkExecutables()

	app.metrics = metrics.New()
	app.metrics.RegistryApps.Set(float64(registry.Len()))

	app.eventBus = events.NewMemoryEventBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, time.Hour),
		Logger:           app.log,
	})

	supOpts, err := supervisor.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	supOpts.Logger = app.log
	supOpts.Bus = app.eventBus
	supOpts.Metrics = app.metrics
	app.supervisor = supervisor.New(registry, supOpts)

	if cfg.Watch.IsEnabled() {
		w, err := watcher.New(app.eventBus, config.ParseDuration(cfg.Watch.Debounce, 0), app.log)
		if err != nil {
			// The launcher works without it.
			app.log.Warn("executable watcher disabled", zap.Error(err))
		} else if err := w.Attach(); err != nil {
			w.Close()
			app.log.Warn("executable watcher disabled", zap.Error(err))
		} else {
			app.watcher = w
		}
	}

	if cfg.Crashes.IsEnabled() {
		if err := app.initCrashes(); err != nil {
			app.log.Warn("crash reports disabled", zap.Error(err))
		}
	}

	deps := api.Dependencies{
		Catalog:    registry,
		Supervisor: app.supervisor,
		EventBus:   app.eventBus,
		Metrics:    app.metrics,
		Logger:     app.log,
		StartedAt:  time.Now(),
	}
	if app.crashes != nil {
		deps.Crashes = app.crashes
	}
	if app.env.ServeUI() {
		deps.UIDir = app.env.UIDir
	}
	app.apiServer = api.NewServer(api.ServerConfig{Addr: app.addr}, deps)

	app.log.Info("initialized",
		zap.String("config", app.configPath),
		zap.Int("applications", registry.Len()),
		zap.String("mode", app.env.Mode),
		zap.String("version", app.version),
	)
	return nil
}

// checkExecutables warns about catalog entries that cannot be launched as
// configured. Launch still reports the spawn failure per request.
func (app *App) checkExecutables() {
	for _, exe := range app.registry.Executables() {
		if _, err := exec.LookPath(exe); err != nil {
			app.log.Warn("catalog executable not found", zap.String("executable", exe), zap.Error(err))
		}
	}
}

// initCrashes starts the crash report store. A relative reports directory
// is taken relative to the catalog file.
func (app *App) initCrashes() error {
	cfg := app.config.Crashes
	dir := cfg.ReportsDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(app.configPath), dir)
	}

	mgr, err := crashes.NewManager(crashes.Config{
		ReportsDir: dir,
		MaxAge:     config.ParseDuration(cfg.MaxAge, 0),
		MaxCount:   cfg.MaxCount,
	}, app.eventBus, app.log)
	if err != nil {
		return err
	}
	if err := mgr.Subscribe(); err != nil {
		return err
	}
	app.crashes = mgr
	return nil
}

// Start binds the listen address. Serving begins in Run.
func (app *App) Start(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	ln, err := net.Listen("tcp", app.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.addr, err)
	}
	app.listener = ln
	return nil
}

// Run initializes and starts the app, then blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.apiServer.Serve(app.listener)
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			app.log.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case <-gctx.Done():
			app.log.Info("context cancelled, shutting down")
		case <-app.done:
			app.log.Info("shutdown requested")
		}
		return app.Shutdown(context.Background())
	})

	return g.Wait()
}

// Shutdown signals every running application before closing the server.
// Running applications are not waited for.
func (app *App) Shutdown(ctx context.Context) error {
	var err error
	app.shutOnce.Do(func() {
		err = app.shutdown(ctx)
	})
	return err
}

func (app *App) shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if app.supervisor != nil {
		app.supervisor.ShutdownAll()
	}

	var serverErr error
	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			app.log.Error("error shutting down API server", zap.Error(err))
			serverErr = err
		}
	}

	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.crashes != nil {
		app.crashes.Close()
	}
	if app.eventBus != nil {
		app.eventBus.Close()
	}

	app.log.Info("shutdown complete")
	if app.ownsLogger {
		app.log.Sync()
	}
	return serverErr
}

// Stop asks Run to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}

// Addr returns the bound listen address once Start has run, else the
// configured one.
func (app *App) Addr() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.addr
}

// URL returns the base URL clients should use.
func (app *App) URL() string {
	host, port, err := net.SplitHostPort(app.Addr())
	if err != nil {
		return "http://" + app.Addr()
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Handler returns the HTTP handler after Initialize.
func (app *App) Handler() http.Handler {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.apiServer == nil {
		return nil
	}
	return app.apiServer.Handler()
}

// Config returns the loaded catalog file.
func (app *App) Config() *config.Config {
	return app.config
}

// Crashes returns the crash report store, or nil when disabled.
func (app *App) Crashes() *crashes.Manager {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.crashes
}

// Supervisor returns the process supervisor after Initialize.
func (app *App) Supervisor() *supervisor.Supervisor {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.supervisor
}
