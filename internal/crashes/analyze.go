// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package crashes

import (
	"regexp"
	"strings"
)

// Analysis is the classified cause of a crash.
type Analysis struct {
	Reason     Reason
	Details    string
	Location   string
	StackTrace []string
}

// Summary renders the analysis on one line.
func (a Analysis) Summary() string {
	s := string(a.Reason)
	if a.Details != "" {
		s += ": " + a.Details
	}
	if a.Location != "" {
		s += " at " + a.Location
	}
	return s
}

// Analyzer classifies crashes from the exit status and the tail of the
// application's output.
type Analyzer struct {
	panicRe     *regexp.Regexp
	goStackRe   *regexp.Regexp
	goLocRe     *regexp.Regexp
	displayRe   *regexp.Regexp
	oomRe       *regexp.Regexp
	fatalRe     *regexp.Regexp
	errorRe     *regexp.Regexp
	sourceLocRe *regexp.Regexp
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		panicRe:   regexp.MustCompile(`^panic: `),
		goStackRe: regexp.MustCompile(`^goroutine \d+ \[`),
		goLocRe:   regexp.MustCompile(`^\s*(/[^\s]+\.go):(\d+)`),
		displayRe: regexp.MustCompile(`(?i)(cannot open display|unable to open display|failed to open display|` +
			`could not connect to (the )?(wayland )?display|failed to connect to (the )?wayland display|` +
			`wl_display_connect|could not load the qt platform plugin)`),
		oomRe:       regexp.MustCompile(`(?i)(out of memory|cannot allocate memory)`),
		fatalRe:     regexp.MustCompile(`(?i)(^fatal( error)?:\s*|[\w.-]+-ERROR \*\*:?\s*)`),
		errorRe:     regexp.MustCompile(`(?i)(^error:|: error:)`),
		sourceLocRe: regexp.MustCompile(`([^\s:]+\.(?:go|c|cc|cpp|rs|py|js)):(\d+)`),
	}
}

var commonErrors = []string{
	"permission denied",
	"no such file or directory",
	"address already in use",
	"connection refused",
	"segmentation fault",
}

// Analyze classifies a crash. Output patterns take priority over the exit
// status since they name the cause rather than the symptom.
func (a *Analyzer) Analyze(output []string, exitCode int, signal string) Analysis {
	if res, ok := a.detectPanic(output); ok {
		return res
	}
	if line, ok := firstMatch(output, a.displayRe); ok {
		return Analysis{Reason: ReasonDisplay, Details: strings.TrimSpace(line)}
	}
	if _, ok := firstMatch(output, a.oomRe); ok {
		return Analysis{Reason: ReasonOOM, Details: "out of memory"}
	}
	if line, ok := firstMatch(output, a.fatalRe); ok {
		res := Analysis{Reason: ReasonFatal, Details: strings.TrimSpace(a.fatalRe.ReplaceAllString(line, ""))}
		res.Location = a.location(output)
		return res
	}
	if signal != "" {
		return Analysis{Reason: ReasonSignal, Details: signal}
	}
	if res, ok := a.detectError(output); ok {
		return res
	}
	return a.fromExitCode(output, exitCode)
}

func (a *Analyzer) detectPanic(output []string) (Analysis, bool) {
	for i, line := range output {
		if !a.panicRe.MatchString(line) {
			continue
		}
		res := Analysis{Reason: ReasonPanic, Details: strings.TrimPrefix(line, "panic: ")}
		inStack := false
		for _, l := range output[i+1:] {
			if a.goStackRe.MatchString(l) {
				inStack = true
			}
			if !inStack {
				continue
			}
			res.StackTrace = append(res.StackTrace, l)
			if res.Location == "" {
				if m := a.goLocRe.FindStringSubmatch(l); m != nil {
					res.Location = baseName(m[1]) + ":" + m[2]
				}
			}
		}
		return res, true
	}
	return Analysis{}, false
}

func (a *Analyzer) detectError(output []string) (Analysis, bool) {
	for _, line := range output {
		if a.errorRe.MatchString(line) {
			return Analysis{Reason: ReasonError, Details: strings.TrimSpace(line), Location: a.location(output)}, true
		}
		lower := strings.ToLower(line)
		for _, pattern := range commonErrors {
			if strings.Contains(lower, pattern) {
				return Analysis{Reason: ReasonError, Details: strings.TrimSpace(line)}, true
			}
		}
	}
	return Analysis{}, false
}

func (a *Analyzer) location(output []string) string {
	for _, line := range output {
		if m := a.sourceLocRe.FindStringSubmatch(line); m != nil {
			return baseName(m[1]) + ":" + m[2]
		}
	}
	return ""
}

func (a *Analyzer) fromExitCode(output []string, exitCode int) Analysis {
	var res Analysis
	switch {
	case exitCode >= 128:
		// A shell reports a child killed by signal n as 128+n.
		return Analysis{Reason: ReasonSignal, Details: signalName(exitCode - 128)}
	case exitCode > 0:
		res.Reason = ReasonError
	case exitCode == 0:
		return Analysis{Reason: ReasonNone}
	default:
		res.Reason = ReasonUnknown
	}

	// Last three non-empty lines as context.
	var last []string
	for i := len(output) - 1; i >= 0 && len(last) < 3; i-- {
		if line := strings.TrimSpace(output[i]); line != "" {
			last = append([]string{line}, last...)
		}
	}
	res.Details = strings.Join(last, " | ")
	return res
}

func firstMatch(lines []string, re *regexp.Regexp) (string, bool) {
	for _, line := range lines {
		if re.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func signalName(num int) string {
	switch num {
	case 1:
		return "SIGHUP"
	case 2:
		return "SIGINT"
	case 3:
		return "SIGQUIT"
	case 6:
		return "SIGABRT"
	case 9:
		return "SIGKILL"
	case 11:
		return "SIGSEGV"
	case 15:
		return "SIGTERM"
	default:
		return "signal"
	}
}
