// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package crashes keeps reports of applications that exited abnormally
// without being asked to. Reports are JSON files in a directory, pruned by
// age and count.
package crashes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wingedpig/wayout/internal/events"
	"go.uber.org/zap"
)

const reportVersion = "1"

// idLayout prefixes every report id, so ids sort and prune by time.
const idLayout = "20060102-150405.000"

// ErrNotFound is returned for unknown report ids.
var ErrNotFound = errors.New("crash report not found")

// Config holds configuration for crash storage.
type Config struct {
	ReportsDir string
	MaxAge     time.Duration
	MaxCount   int
}

// Manager captures crash events and stores them as reports.
type Manager struct {
	mu       sync.RWMutex
	config   Config
	bus      events.EventBus
	subID    events.SubscriptionID
	analyzer *Analyzer
	log      *zap.Logger
	now      func() time.Time
}

// NewManager creates a manager writing to cfg.ReportsDir, which is created
// if missing.
func NewManager(cfg Config, bus events.EventBus, logger *zap.Logger) (*Manager, error) {
	if cfg.ReportsDir == "" {
		return nil, fmt.Errorf("crash reports directory not set")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(cfg.ReportsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create crash reports directory: %w", err)
	}

	return &Manager{
		config:   cfg,
		bus:      bus,
		analyzer: NewAnalyzer(),
		log:      logger.Named("crashes"),
		now:      time.Now,
	}, nil
}

// Subscribe starts capturing application.crashed events.
func (m *Manager) Subscribe() error {
	if m.bus == nil {
		return nil
	}
	id, err := m.bus.Subscribe(events.EventAppCrashed, func(ctx context.Context, e events.Event) error {
		_, err := m.Capture(e)
		return err
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.subID = id
	m.mu.Unlock()
	return nil
}

// Close stops capturing.
func (m *Manager) Close() error {
	m.mu.Lock()
	id := m.subID
	m.subID = ""
	m.mu.Unlock()

	if id == "" || m.bus == nil {
		return nil
	}
	return m.bus.Unsubscribe(id)
}

// Capture builds, analyzes and stores a report from a crash event.
func (m *Manager) Capture(e events.Event) (*Report, error) {
	if e.AppID == "" {
		return nil, fmt.Errorf("crash event %s has no application id", e.ID)
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = m.now()
	}

	report := &Report{
		Version:    reportVersion,
		ID:         ts.Local().Format(idLayout) + "-" + e.AppID,
		AppID:      e.AppID,
		Label:      stringField(e.Payload, "id"),
		PID:        intField(e.Payload, "pid"),
		Executable: stringField(e.Payload, "executable"),
		Timestamp:  ts,
		ExitCode:   intField(e.Payload, "exitCode"),
		Signal:     stringField(e.Payload, "signal"),
		Uptime:     floatField(e.Payload, "uptime"),
		Output:     linesField(e.Payload, "output"),
		Trigger:    e.Type,
	}

	analysis := m.analyzer.Analyze(report.Output, report.ExitCode, report.Signal)
	report.Reason = analysis.Reason
	report.Details = analysis.Details
	report.Location = analysis.Location
	report.StackTrace = analysis.StackTrace

	if err := m.Save(report); err != nil {
		return nil, err
	}
	m.log.Warn("crash report saved",
		zap.String("id", report.ID),
		zap.String("app", report.AppID),
		zap.String("reason", analysis.Summary()))

	m.cleanup()
	return report, nil
}

// Save writes a report to disk.
func (m *Manager) Save(report *Report) error {
	if !validID(report.ID) {
		return fmt.Errorf("invalid crash report id %q", report.ID)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal crash report: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.WriteFile(m.path(report.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write crash report: %w", err)
	}
	return nil
}

// List returns report summaries, newest first.
func (m *Manager) List() ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, err := m.idsLocked()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		report, err := m.loadLocked(id)
		if err != nil {
			m.log.Debug("skipping unreadable crash report", zap.String("id", id), zap.Error(err))
			continue
		}
		summaries = append(summaries, report.summary())
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	return summaries, nil
}

// Get returns one report.
func (m *Manager) Get(id string) (*Report, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(id)
}

// Newest returns the most recent report, or nil if there are none.
func (m *Manager) Newest() (*Report, error) {
	summaries, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return m.Get(summaries[0].ID)
}

// Delete removes one report.
func (m *Manager) Delete(id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete crash report: %w", err)
	}
	return nil
}

// Clear removes all reports.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.idsLocked()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := os.Remove(m.path(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete crash report: %w", err)
		}
	}
	return nil
}

// cleanup removes reports older than MaxAge, then the oldest beyond MaxCount.
func (m *Manager) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.idsLocked()
	if err != nil {
		return
	}

	type entry struct {
		id string
		ts time.Time
	}
	var kept []entry
	cutoff := m.now().Add(-m.config.MaxAge)

	for _, id := range ids {
		if len(id) < len(idLayout) {
			continue
		}
		ts, err := time.ParseInLocation(idLayout, id[:len(idLayout)], time.Local)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			os.Remove(m.path(id))
			continue
		}
		kept = append(kept, entry{id: id, ts: ts})
	}

	if len(kept) <= m.config.MaxCount {
		return
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ts.After(kept[j].ts) })
	for _, e := range kept[m.config.MaxCount:] {
		os.Remove(m.path(e.id))
	}
}

func (m *Manager) idsLocked() ([]string, error) {
	entries, err := os.ReadDir(m.config.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read crash reports directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}

func (m *Manager) loadLocked(id string) (*Report, error) {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read crash report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal crash report: %w", err)
	}
	return &report, nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.config.ReportsDir, id+".json")
}

// validID rejects ids that would escape the reports directory.
func validID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") && filepath.Base(id) == id
}

func stringField(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

// intField accepts both the in-process int and a JSON-decoded float64.
func intField(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func floatField(payload map[string]interface{}, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func linesField(payload map[string]interface{}, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		if v != nil {
			return v
		}
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				lines = append(lines, s)
			}
		}
		return lines
	}
	return []string{}
}
