// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// validAppID accepts any id that fits in one URL path segment.
func validAppID(id string) bool {
	return id != "." && id != ".." && !strings.Contains(id, "/")
}

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateApplications(cfg, errs)
	v.validateSupervisor(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateApplications(cfg *Config, errs *ValidationError) {
	seen := make(map[string]int)
	for i, app := range cfg.Applications {
		prefix := fmt.Sprintf("applications[%d]", i)

		switch {
		case app.ID == "":
			errs.Add(prefix+".id", "is required")
		case !validAppID(app.ID):
			errs.Add(prefix+".id", fmt.Sprintf("invalid id %q", app.ID))
		default:
			if first, dup := seen[app.ID]; dup {
				errs.Add(prefix+".id", fmt.Sprintf("duplicate id %q (first at applications[%d])", app.ID, first))
			} else {
				seen[app.ID] = i
			}
		}

		if app.Executable == "" {
			errs.Add(prefix+".executable", "is required")
		}

		for key := range app.Env {
			if !envKeyPattern.MatchString(key) {
				errs.Add(prefix+".env", fmt.Sprintf("invalid variable name %q", key))
			}
		}
	}
}

func (v *Validator) validateSupervisor(cfg *Config, errs *ValidationError) {
	switch cfg.Supervisor.StopSignal {
	case "", "SIGTERM", "SIGINT", "SIGHUP":
	default:
		errs.Add("supervisor.stop_signal", fmt.Sprintf("unsupported signal %q", cfg.Supervisor.StopSignal))
	}
	if cfg.Supervisor.LogBufferSize < 0 {
		errs.Add("supervisor.log_buffer_size", "must not be negative")
	}
	if cfg.Crashes.MaxCount < 0 {
		errs.Add("crashes.max_count", "must not be negative")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	durations := map[string]string{
		"supervisor.grace_period": cfg.Supervisor.GracePeriod,
		"events.history.max_age":  cfg.Events.History.MaxAge,
		"watch.debounce":          cfg.Watch.Debounce,
		"crashes.max_age":         cfg.Crashes.MaxAge,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs.Add(field, fmt.Sprintf("invalid duration %q", value))
			continue
		}
		if d < 0 {
			errs.Add(field, "must not be negative")
		}
	}
}
