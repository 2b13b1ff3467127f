// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativePattern = regexp.MustCompile(`^(\d+)([smhdw])$`)
	clock12Pattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(am|pm)$`)
	clock24Pattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// parseSince parses a point in time relative to now.
// Supported formats:
//   - Relative: 1h, 30m, 2d, 1w (that long ago)
//   - Clock time: 6:00am, 6:30pm, 14:00 (today)
//   - ISO timestamp: 2026-01-15T10:30:00Z, 2026-01-15
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}

	if t, ok := parseClockTime(s, now); ok {
		return t, nil
	}

	matches := relativePattern.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("invalid time %q (use e.g. 1h, 30m, 6:30am or an ISO timestamp)", s)
	}

	value, _ := strconv.Atoi(matches[1])
	unit := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	}[matches[2]]

	return now.Add(-time.Duration(value) * unit), nil
}

// parseClockTime parses "6:00am", "6:30pm", "14:00" as a time on now's date.
func parseClockTime(s string, now time.Time) (time.Time, bool) {
	s = strings.ToLower(s)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var hour, minute int
	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return time.Time{}, false
		}
		switch {
		case m[3] == "am" && hour == 12:
			hour = 0
		case m[3] == "pm" && hour != 12:
			hour += 12
		}
	} else if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
	} else {
		return time.Time{}, false
	}

	return today.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true
}
