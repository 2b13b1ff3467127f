// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package supervisor launches catalog applications and tracks the ones
// that are running. At most one process exists per application id.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/wayout/internal/catalog"
	"github.com/wingedpig/wayout/internal/config"
	"github.com/wingedpig/wayout/internal/events"
	"go.uber.org/zap"
)

const (
	defaultGracePeriod = 5 * time.Second

	// crashOutputLines is how much captured output a crash event carries.
	crashOutputLines = 50
)

// Record is a snapshot of one running application.
type Record struct {
	// Label is a random display identifier of the form app_<uuid>.
	Label     string
	AppID     string
	PID       int
	StartedAt time.Time
}

// Recorder receives lifecycle counts. *metrics.Metrics satisfies it.
type Recorder interface {
	AppLaunched(appID string)
	LaunchFailed(appID string)
	AppStopped(appID string)
	AppExited(appID string)
	AppKilled(appID string)
	AppCrashed(appID string)
	SetRunning(n int)
}

// Options configures a Supervisor.
type Options struct {
	Display       config.DisplayConfig
	GracePeriod   time.Duration
	StopSignal    syscall.Signal
	LogBufferSize int
	// BaseEnv defaults to os.Environ().
	BaseEnv []string

	Logger  *zap.Logger
	Bus     events.EventBus
	Metrics Recorder
}

// OptionsFromConfig maps the catalog file's supervisor and display sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	sig, err := ParseSignal(cfg.Supervisor.StopSignal)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Display:       cfg.Display,
		GracePeriod:   config.ParseDuration(cfg.Supervisor.GracePeriod, defaultGracePeriod),
		StopSignal:    sig,
		LogBufferSize: cfg.Supervisor.LogBufferSize,
	}, nil
}

// ParseSignal maps a configured stop signal name.
func ParseSignal(name string) (syscall.Signal, error) {
	switch name {
	case "", "SIGTERM":
		return syscall.SIGTERM, nil
	case "SIGINT":
		return syscall.SIGINT, nil
	case "SIGHUP":
		return syscall.SIGHUP, nil
	default:
		return 0, fmt.Errorf("unsupported stop signal: %s", name)
	}
}

// Supervisor owns the running-set.
type Supervisor struct {
	registry *catalog.Registry
	opts     Options
	log      *zap.Logger

	mu      sync.Mutex
	running map[string]*process
}

// New creates a supervisor for the applications in registry.
func New(registry *catalog.Registry, opts Options) *Supervisor {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = defaultGracePeriod
	}
	if opts.StopSignal == 0 {
		opts.StopSignal = syscall.SIGTERM
	}
	if opts.BaseEnv == nil {
		opts.BaseEnv = os.Environ()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}

	return &Supervisor{
		registry: registry,
		opts:     opts,
		log:      opts.Logger.Named("supervisor"),
		running:  make(map[string]*process),
	}
}

// Launch spawns appID. It fails with ErrNotFound for ids outside the
// catalog, ErrAlreadyRunning if a record exists, or *SpawnError.
func (s *Supervisor) Launch(ctx context.Context, appID string) (Record, error) {
	desc, ok := s.registry.Get(appID)
	if !ok {
		return Record{}, ErrNotFound
	}

	env := buildEnv(s.opts.BaseEnv, s.opts.Display, desc.Env)

	// The lock spans check and insert so concurrent launches of one id
	// produce exactly one process.
	s.mu.Lock()
	if _, exists := s.running[appID]; exists {
		s.mu.Unlock()
		return Record{}, ErrAlreadyRunning
	}

	proc, err := spawn(desc, env, s.opts.LogBufferSize, s.handleOutput)
	if err != nil {
		s.mu.Unlock()
		s.opts.Metrics.LaunchFailed(appID)
		s.log.Error("launch failed", zap.String("app", appID), zap.String("executable", desc.Executable), zap.Error(err))
		s.publish(ctx, events.EventAppLaunchFailed, appID, map[string]interface{}{
			"executable": desc.Executable,
			"error":      err.Error(),
		})
		return Record{}, &SpawnError{AppID: appID, Err: err}
	}

	s.running[appID] = proc
	n := len(s.running)
	s.mu.Unlock()

	s.opts.Metrics.AppLaunched(appID)
	s.opts.Metrics.SetRunning(n)
	s.log.Info("launched",
		zap.String("app", appID),
		zap.String("name", desc.Name),
		zap.Int("pid", proc.pid),
		zap.Bool("pty", desc.PTY))

	rec := proc.record()
	s.publish(ctx, events.EventAppLaunched, appID, map[string]interface{}{
		"id":         rec.Label,
		"pid":        rec.PID,
		"executable": desc.Executable,
	})

	// Started after the launched event so subscribers see launch before exit.
	go s.observe(proc)
	return rec, nil
}

// Stop signals the application's process group and forgets the record at
// once. A SIGKILL follows after the grace period if the process is still
// alive. ref is an application id or a record label.
func (s *Supervisor) Stop(ctx context.Context, ref string) error {
	s.mu.Lock()
	proc := s.lookupLocked(ref)
	if proc == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	proc.markStopping()
	if err := proc.signal(s.opts.StopSignal); err != nil {
		s.mu.Unlock()
		s.log.Error("stop failed", zap.String("app", proc.appID), zap.Error(err))
		return err
	}
	delete(s.running, proc.appID)
	n := len(s.running)
	s.mu.Unlock()

	proc.scheduleKill(s.opts.GracePeriod, func() { s.escalate(proc) })

	s.opts.Metrics.AppStopped(proc.appID)
	s.opts.Metrics.SetRunning(n)
	s.log.Info("stopped",
		zap.String("app", proc.appID),
		zap.Int("pid", proc.pid),
		zap.Stringer("signal", s.opts.StopSignal))
	s.publish(ctx, events.EventAppStopped, proc.appID, map[string]interface{}{
		"id":     proc.label,
		"pid":    proc.pid,
		"signal": s.opts.StopSignal.String(),
	})
	return nil
}

func (s *Supervisor) lookupLocked(ref string) *process {
	if proc, ok := s.running[ref]; ok {
		return proc
	}
	for _, proc := range s.running {
		if proc.label == ref {
			return proc
		}
	}
	return nil
}

// escalate runs from the kill timer.
func (s *Supervisor) escalate(proc *process) {
	if err := proc.signal(syscall.SIGKILL); err != nil {
		s.log.Warn("force kill failed", zap.String("app", proc.appID), zap.Int("pid", proc.pid), zap.Error(err))
		return
	}
	s.opts.Metrics.AppKilled(proc.appID)
	s.log.Warn("force killed after grace period",
		zap.String("app", proc.appID),
		zap.Int("pid", proc.pid),
		zap.Duration("grace", s.opts.GracePeriod))
	s.publish(context.Background(), events.EventAppKilled, proc.appID, map[string]interface{}{
		"id":  proc.label,
		"pid": proc.pid,
	})
}

// observe reaps proc and drops its record if it is still the tracked one.
func (s *Supervisor) observe(proc *process) {
	status := proc.wait()

	s.mu.Lock()
	removed := false
	if cur, ok := s.running[proc.appID]; ok && cur == proc {
		delete(s.running, proc.appID)
		removed = true
	}
	n := len(s.running)
	s.mu.Unlock()

	if removed {
		s.opts.Metrics.SetRunning(n)
	}
	s.opts.Metrics.AppExited(proc.appID)

	fields := []zap.Field{
		zap.String("app", proc.appID),
		zap.Int("pid", proc.pid),
		zap.Int("code", status.Code),
		zap.Duration("uptime", time.Since(proc.startedAt)),
	}
	if status.Signal != "" {
		fields = append(fields, zap.String("signal", status.Signal))
	}
	s.log.Info("exited", fields...)

	s.publish(context.Background(), events.EventAppExited, proc.appID, map[string]interface{}{
		"id":        proc.label,
		"pid":       proc.pid,
		"exitCode":  status.Code,
		"signal":    status.Signal,
		"requested": proc.stopRequested(),
	})

	if proc.stopRequested() || (status.Code == 0 && status.Signal == "") {
		return
	}

	// Unrequested abnormal exit.
	s.opts.Metrics.AppCrashed(proc.appID)
	s.log.Warn("crashed", fields...)
	s.publish(context.Background(), events.EventAppCrashed, proc.appID, map[string]interface{}{
		"id":         proc.label,
		"pid":        proc.pid,
		"executable": proc.executable,
		"exitCode":   status.Code,
		"signal":     status.Signal,
		"uptime":     time.Since(proc.startedAt).Seconds(),
		"output":     proc.logs.Lines(crashOutputLines),
	})
}

func (s *Supervisor) handleOutput(proc *process, stream, line string) {
	proc.logs.Write(line)
	if stream == "stderr" {
		s.log.Warn(line, zap.String("app", proc.appID), zap.String("stream", stream))
		return
	}
	s.log.Info(line, zap.String("app", proc.appID), zap.String("stream", stream))
}

// ListRunning returns a snapshot ordered by start time.
func (s *Supervisor) ListRunning() []Record {
	s.mu.Lock()
	out := make([]Record, 0, len(s.running))
	for _, proc := range s.running {
		out = append(out, proc.record())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].AppID < out[j].AppID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Get returns the record for an application id or label.
func (s *Supervisor) Get(ref string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proc := s.lookupLocked(ref)
	if proc == nil {
		return Record{}, false
	}
	return proc.record(), true
}

// Count returns the size of the running-set.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

// Logs returns the last n captured output lines of a running application.
func (s *Supervisor) Logs(ref string, n int) ([]string, error) {
	s.mu.Lock()
	proc := s.lookupLocked(ref)
	s.mu.Unlock()

	if proc == nil {
		return nil, ErrNotFound
	}
	return proc.logs.Lines(n), nil
}

// ShutdownAll sends the stop signal to every tracked process and clears the
// running-set. It does not wait for the processes to exit.
func (s *Supervisor) ShutdownAll() {
	s.mu.Lock()
	procs := make([]*process, 0, len(s.running))
	for _, proc := range s.running {
		procs = append(procs, proc)
	}
	s.running = make(map[string]*process)
	s.mu.Unlock()

	for _, proc := range procs {
		proc.markStopping()
		if err := proc.signal(s.opts.StopSignal); err != nil {
			s.log.Warn("shutdown signal failed", zap.String("app", proc.appID), zap.Error(err))
			continue
		}
		s.log.Info("terminating on shutdown", zap.String("app", proc.appID), zap.Int("pid", proc.pid))
	}
	s.opts.Metrics.SetRunning(0)
}

func (s *Supervisor) publish(ctx context.Context, eventType, appID string, payload map[string]interface{}) {
	if s.opts.Bus == nil {
		return
	}
	err := s.opts.Bus.Publish(ctx, events.Event{
		Type:    eventType,
		AppID:   appID,
		Payload: payload,
	})
	if err != nil {
		s.log.Debug("event not published", zap.String("type", eventType), zap.Error(err))
	}
}

type nopRecorder struct{}

func (nopRecorder) AppLaunched(string)  {}
func (nopRecorder) LaunchFailed(string) {}
func (nopRecorder) AppStopped(string)   {}
func (nopRecorder) AppExited(string)    {}
func (nopRecorder) AppKilled(string)    {}
func (nopRecorder) AppCrashed(string)   {}
func (nopRecorder) SetRunning(int)      {}
