// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package watcher reports when the executable of a running application
// changes on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wingedpig/wayout/internal/events"
	"go.uber.org/zap"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("watcher is closed")

type watchedApp struct {
	label string
	path  string
}

// ExecutableWatcher watches the executables of running applications and
// publishes application.binary_changed when one is rewritten or replaced.
// Directories are watched rather than files so atomic renames over the
// executable are seen.
type ExecutableWatcher struct {
	mu        sync.Mutex
	bus       events.EventBus
	log       *zap.Logger
	fs        *fsnotify.Watcher
	debouncer *debouncer
	apps      map[string]watchedApp      // app id -> watched executable
	byPath    map[string]map[string]bool // executable path -> app ids
	dirs      map[string]int             // directory -> reference count
	subID     events.SubscriptionID
	closed    bool
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// New creates a watcher that publishes to bus.
func New(bus events.EventBus, debounce time.Duration, logger *zap.Logger) (*ExecutableWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &ExecutableWatcher{
		bus:       bus,
		log:       logger.Named("watcher"),
		fs:        fsw,
		debouncer: newDebouncer(debounce),
		apps:      make(map[string]watchedApp),
		byPath:    make(map[string]map[string]bool),
		dirs:      make(map[string]int),
		closeCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Attach follows launch and exit events on the bus so watches track the
// running-set.
func (w *ExecutableWatcher) Attach() error {
	id, err := w.bus.SubscribeAsync("application.*", w.onLifecycle, 256)
	if err != nil {
		return fmt.Errorf("subscribe to lifecycle events: %w", err)
	}
	w.mu.Lock()
	w.subID = id
	w.mu.Unlock()
	return nil
}

func (w *ExecutableWatcher) onLifecycle(ctx context.Context, e events.Event) error {
	label, _ := e.Payload["id"].(string)

	switch e.Type {
	case events.EventAppLaunched:
		executable, _ := e.Payload["executable"].(string)
		if executable == "" {
			return nil
		}
		return w.Watch(e.AppID, label, executable)
	case events.EventAppStopped, events.EventAppExited:
		w.Unwatch(e.AppID, label)
	}
	return nil
}

// Watch starts watching executable on behalf of appID's running record
// label. A previous watch for appID is replaced.
func (w *ExecutableWatcher) Watch(appID, label, executable string) error {
	path, err := resolve(executable)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	if old, ok := w.apps[appID]; ok {
		w.dropLocked(appID, old)
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++

	w.apps[appID] = watchedApp{label: label, path: path}
	if w.byPath[path] == nil {
		w.byPath[path] = make(map[string]bool)
	}
	w.byPath[path][appID] = true

	w.log.Debug("watching executable", zap.String("app", appID), zap.String("path", path))
	return nil
}

// Unwatch stops watching for appID. An empty label matches any record;
// otherwise only the watch created for that label is removed, so the exit
// of an old process does not drop the watch of its relaunch.
func (w *ExecutableWatcher) Unwatch(appID, label string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	app, ok := w.apps[appID]
	if !ok || (label != "" && app.label != label) {
		return
	}
	w.dropLocked(appID, app)
}

func (w *ExecutableWatcher) dropLocked(appID string, app watchedApp) {
	delete(w.apps, appID)

	if ids := w.byPath[app.path]; ids != nil {
		delete(ids, appID)
		if len(ids) == 0 {
			delete(w.byPath, app.path)
			w.debouncer.cancel(app.path)
		}
	}

	dir := filepath.Dir(app.path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		w.fs.Remove(dir)
	}
}

// Watching returns the ids of applications being watched.
func (w *ExecutableWatcher) Watching() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.apps))
	for id := range w.apps {
		out = append(out, id)
	}
	return out
}

// Close stops the watcher.
func (w *ExecutableWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	subID := w.subID
	close(w.closeCh)
	w.mu.Unlock()

	if subID != "" {
		w.bus.Unsubscribe(subID)
	}
	w.debouncer.stop()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *ExecutableWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

func (w *ExecutableWatcher) handleEvent(event fsnotify.Event) {
	// Chmod fires when a binary is executed; ignore it.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	_, watched := w.byPath[event.Name]
	w.mu.Unlock()
	if !watched {
		return
	}

	path := event.Name
	w.debouncer.trigger(path, func() { w.publishChange(path) })
}

func (w *ExecutableWatcher) publishChange(path string) {
	w.mu.Lock()
	type target struct{ appID, label string }
	var targets []target
	for appID := range w.byPath[path] {
		targets = append(targets, target{appID, w.apps[appID].label})
	}
	w.mu.Unlock()

	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	for _, t := range targets {
		w.log.Info("executable changed", zap.String("app", t.appID), zap.String("path", path))
		err := w.bus.Publish(context.Background(), events.Event{
			Type:  events.EventAppBinaryChanged,
			AppID: t.appID,
			Payload: map[string]interface{}{
				"id":      t.label,
				"path":    path,
				"modTime": modTime.Format(time.RFC3339),
			},
		})
		if err != nil {
			w.log.Debug("event not published", zap.Error(err))
		}
	}
}

// resolve turns a catalog executable into an absolute path, looking bare
// names up in PATH the way exec does.
func resolve(executable string) (string, error) {
	path := executable
	if !strings.ContainsRune(executable, filepath.Separator) {
		found, err := exec.LookPath(executable)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", executable, err)
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", executable, err)
	}
	return abs, nil
}
