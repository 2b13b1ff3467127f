// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"strings"
)

// Pattern is a compiled event type pattern. Supported forms:
//   - "*" matches everything
//   - "application.*" matches every type under the application prefix
//   - "*.exited" matches every type with that final segment
//   - anything else is an exact match
type Pattern struct {
	raw    string
	prefix string
	suffix string
	any    bool
}

// ErrEmptyPattern is returned when compiling an empty pattern.
var ErrEmptyPattern = errors.New("empty pattern")

// CompilePattern parses a pattern string.
func CompilePattern(pattern string) (Pattern, error) {
	switch {
	case pattern == "":
		return Pattern{}, ErrEmptyPattern
	case pattern == "*":
		return Pattern{raw: pattern, any: true}, nil
	case strings.HasSuffix(pattern, ".*"):
		return Pattern{raw: pattern, prefix: strings.TrimSuffix(pattern, "*")}, nil
	case strings.HasPrefix(pattern, "*."):
		return Pattern{raw: pattern, suffix: strings.TrimPrefix(pattern, "*")}, nil
	default:
		return Pattern{raw: pattern}, nil
	}
}

// Match reports whether eventType matches the pattern.
func (p Pattern) Match(eventType string) bool {
	if eventType == "" {
		return false
	}
	switch {
	case p.any:
		return true
	case p.prefix != "":
		return strings.HasPrefix(eventType, p.prefix)
	case p.suffix != "":
		return strings.HasSuffix(eventType, p.suffix)
	default:
		return p.raw != "" && eventType == p.raw
	}
}

// String returns the source pattern.
func (p Pattern) String() string {
	return p.raw
}

// MatchAny reports whether eventType matches at least one of patterns.
// Patterns that fail to compile never match.
func MatchAny(eventType string, patterns []string) bool {
	for _, raw := range patterns {
		p, err := CompilePattern(raw)
		if err != nil {
			continue
		}
		if p.Match(eventType) {
			return true
		}
	}
	return false
}
