// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// wayout-ctl is a command-line tool for controlling a running wayout server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/wingedpig/wayout/pkg/client"
)

var (
	version    = "0.1"
	apiURL     = "http://localhost:3001"
	jsonOutput = false

	// API client instance
	apiClient *client.Client

	stdout io.Writer = os.Stdout
)

func main() {
	if env := os.Getenv("WAYOUT_API"); env != "" {
		apiURL = strings.TrimSuffix(env, "/")
	}

	// Parse global flags and filter them out
	var filteredArgs []string
	for _, arg := range os.Args[1:] {
		if arg == "-json" {
			jsonOutput = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	apiClient = client.New(apiURL)

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, filteredArgs[0], filteredArgs[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "apps":
		return cmdApps(ctx)
	case "running", "status":
		return cmdRunning(ctx)
	case "launch", "start":
		return cmdLaunch(ctx, args)
	case "stop":
		return cmdStop(ctx, args)
	case "logs":
		return cmdLogs(ctx, args)
	case "health":
		return cmdHealth(ctx)
	case "events":
		return cmdEvents(ctx, args)
	case "crash", "crashes":
		return cmdCrash(ctx, args)
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "wayout-ctl %s\n", version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage() {
	fmt.Fprintln(stdout, `wayout-ctl - Control a running wayout server

Usage:
  wayout-ctl [-json] <command> [arguments]

Global Flags:
  -json          Output in JSON format

Environment:
  WAYOUT_API     Base URL of the wayout API (default: http://localhost:3001)

Commands:
  apps                     List the application catalog
  running                  List running applications
  launch <id>              Launch an application
  stop <id|label>          Stop a running application

  logs <id|label> [options] Show captured output of a running application
    -n N                   Number of lines (default: 100)
    -grep <pattern>        Only lines matching the regex

  health                   Show server health

  events [options]         Show recent events
    -n N                   Number of events (default: 50)
    -type <pattern>        Event type pattern, e.g. application.* (can repeat)
    -app <id>              Only events of one application
    -since <time>          Since (e.g., 1h, 30m, 6:30am, 2026-01-15T10:00:00Z)
    -f                     Follow the live event stream

  crash list               List crash reports
  crash newest             Show the most recent crash report
  crash <id>               Show a crash report
  crash delete <id>        Delete a crash report
  crash clear              Delete all crash reports

  version                  Show version
  help                     Show this help`)
}

// printJSON outputs any value as formatted JSON
func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(stdout, string(out))
}

func cmdApps(ctx context.Context) error {
	apps, err := apiClient.Applications.List(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(apps)
		return nil
	}

	fmt.Fprintf(stdout, "%-20s %-25s %-12s %s\n", "ID", "NAME", "CATEGORY", "EXECUTABLE")
	fmt.Fprintln(stdout, strings.Repeat("-", 90))
	for _, app := range apps {
		cmdline := app.Executable
		if len(app.Args) > 0 {
			cmdline += " " + strings.Join(app.Args, " ")
		}
		fmt.Fprintf(stdout, "%-20s %-25s %-12s %s\n", app.ID, app.Name, app.Category, cmdline)
	}
	return nil
}

func cmdRunning(ctx context.Context) error {
	running, err := apiClient.Applications.Running(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(running)
		return nil
	}

	if len(running) == 0 {
		fmt.Fprintln(stdout, "No applications running")
		return nil
	}

	fmt.Fprintf(stdout, "%-20s %-8s %-12s %s\n", "APP", "PID", "UPTIME", "LABEL")
	fmt.Fprintln(stdout, strings.Repeat("-", 90))
	for _, r := range running {
		fmt.Fprintf(stdout, "%-20s %-8d %-12s %s\n",
			r.AppID,
			r.PID,
			formatUptime(time.Since(r.StartedAt)),
			r.ID,
		)
	}
	return nil
}

func cmdLaunch(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wayout-ctl launch <id>")
	}

	app, err := apiClient.Applications.Launch(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(app)
		return nil
	}

	fmt.Fprintf(stdout, "Launched %s (pid %d, %s)\n", app.AppID, app.PID, app.ID)
	return nil
}

func cmdStop(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wayout-ctl stop <id|label>")
	}

	if err := apiClient.Applications.Stop(ctx, args[0]); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
		return nil
	}

	fmt.Fprintf(stdout, "Stopped %s\n", args[0])
	return nil
}

func cmdLogs(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wayout-ctl logs <id|label> [-n N] [-grep pattern]")
	}

	ref := args[0]
	lines := 100
	var grep *regexp.Regexp

	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-n":
			if i+1 >= len(args) {
				return fmt.Errorf("-n requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid -n value: %s", args[i+1])
			}
			lines = n
			i++
		case "-grep":
			if i+1 >= len(args) {
				return fmt.Errorf("-grep requires a pattern")
			}
			re, err := regexp.Compile(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid grep pattern: %w", err)
			}
			grep = re
			i++
		default:
			return fmt.Errorf("unknown logs option: %s", args[i])
		}
	}

	out, err := apiClient.Applications.Logs(ctx, ref, lines)
	if err != nil {
		return err
	}

	if grep != nil {
		filtered := out[:0]
		for _, line := range out {
			if grep.MatchString(line) {
				filtered = append(filtered, line)
			}
		}
		out = filtered
	}

	if jsonOutput {
		printJSON(out)
		return nil
	}

	for _, line := range out {
		fmt.Fprintln(stdout, line)
	}
	return nil
}

func cmdHealth(ctx context.Context) error {
	h, err := apiClient.Health(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(h)
		return nil
	}

	fmt.Fprintf(stdout, "Status:   %s\n", h.Status)
	fmt.Fprintf(stdout, "Uptime:   %s\n", formatUptime(h.UptimeDuration()))
	fmt.Fprintf(stdout, "Running:  %d\n", h.RunningApps)
	return nil
}

func cmdEvents(ctx context.Context, args []string) error {
	opts := &client.ListOptions{Limit: 50}
	follow := false

	for i := 0; i < len(args); i++ {
		needValue := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", args[i])
			}
			i++
			return args[i], nil
		}

		switch args[i] {
		case "-n":
			v, err := needValue()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid -n value: %s", v)
			}
			opts.Limit = n
		case "-type":
			v, err := needValue()
			if err != nil {
				return err
			}
			opts.Types = append(opts.Types, v)
		case "-app":
			v, err := needValue()
			if err != nil {
				return err
			}
			opts.AppID = v
		case "-since":
			v, err := needValue()
			if err != nil {
				return err
			}
			t, err := parseSince(v, time.Now())
			if err != nil {
				return err
			}
			opts.Since = t
		case "-f":
			follow = true
		default:
			return fmt.Errorf("unknown events option: %s", args[i])
		}
	}

	if follow {
		return followEvents(ctx, opts)
	}

	events, err := apiClient.Events.List(ctx, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(events)
		return nil
	}

	printEventHeader()
	for _, evt := range events {
		printEvent(evt)
	}
	return nil
}

func followEvents(ctx context.Context, opts *client.ListOptions) error {
	// The stream takes a single pattern; extra ones are applied here.
	pattern := "*"
	if len(opts.Types) == 1 {
		pattern = opts.Types[0]
	}

	if !jsonOutput {
		printEventHeader()
	}
	return apiClient.Events.Stream(ctx, pattern, func(evt client.Event) error {
		if opts.AppID != "" && evt.AppID != opts.AppID {
			return nil
		}
		if len(opts.Types) > 1 && !matchesAny(evt.Type, opts.Types) {
			return nil
		}
		if jsonOutput {
			out, _ := json.Marshal(evt)
			fmt.Fprintln(stdout, string(out))
			return nil
		}
		printEvent(evt)
		return nil
	})
}

func printEventHeader() {
	fmt.Fprintf(stdout, "%-20s %-28s %-15s %s\n", "TIME", "TYPE", "APP", "DETAILS")
	fmt.Fprintln(stdout, strings.Repeat("-", 100))
}

func printEvent(evt client.Event) {
	keys := make([]string, 0, len(evt.Payload))
	for k := range evt.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, evt.Payload[k]))
	}

	fmt.Fprintf(stdout, "%-20s %-28s %-15s %s\n",
		evt.Timestamp.Local().Format("2006-01-02 15:04:05"),
		evt.Type,
		evt.AppID,
		strings.Join(parts, " "),
	)
}

// matchesAny applies the server's pattern forms: "*", "prefix.*", "*.suffix"
// or an exact type.
func matchesAny(eventType string, patterns []string) bool {
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasSuffix(p, ".*") && strings.HasPrefix(eventType, strings.TrimSuffix(p, "*")):
			return true
		case strings.HasPrefix(p, "*.") && strings.HasSuffix(eventType, strings.TrimPrefix(p, "*")):
			return true
		case p == eventType:
			return true
		}
	}
	return false
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func cmdCrash(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return cmdCrashList(ctx)
	}

	switch args[0] {
	case "list":
		return cmdCrashList(ctx)
	case "newest":
		crash, err := apiClient.Crashes.Newest(ctx)
		if err != nil {
			return err
		}
		if crash == nil && !jsonOutput {
			fmt.Fprintln(stdout, "No crashes recorded")
			return nil
		}
		return showCrash(crash)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: wayout-ctl crash delete <id>")
		}
		if err := apiClient.Crashes.Delete(ctx, args[1]); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintf(stdout, "Deleted crash %s\n", args[1])
		}
		return nil
	case "clear":
		if err := apiClient.Crashes.Clear(ctx); err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintln(stdout, "Cleared all crashes")
		}
		return nil
	default:
		crash, err := apiClient.Crashes.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return showCrash(crash)
	}
}

func cmdCrashList(ctx context.Context) error {
	crashes, err := apiClient.Crashes.List(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(crashes)
		return nil
	}

	if len(crashes) == 0 {
		fmt.Fprintln(stdout, "No crashes recorded")
		return nil
	}

	fmt.Fprintf(stdout, "%-36s %-15s %-6s %-8s %s\n", "ID", "APP", "EXIT", "REASON", "DETAILS")
	fmt.Fprintln(stdout, strings.Repeat("-", 100))
	for _, c := range crashes {
		details := c.Details
		if len(details) > 40 {
			details = details[:40] + "..."
		}
		fmt.Fprintf(stdout, "%-36s %-15s %-6d %-8s %s\n", c.ID, c.AppID, c.ExitCode, c.Reason, details)
	}
	return nil
}

func showCrash(crash *client.Crash) error {
	if jsonOutput {
		printJSON(crash)
		return nil
	}

	fmt.Fprintf(stdout, "Crash: %s\n", crash.ID)
	fmt.Fprintf(stdout, "  App:        %s (pid %d)\n", crash.AppID, crash.PID)
	if crash.Executable != "" {
		fmt.Fprintf(stdout, "  Executable: %s\n", crash.Executable)
	}
	fmt.Fprintf(stdout, "  Time:       %s\n", crash.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(stdout, "  Uptime:     %s\n", formatUptime(time.Duration(crash.Uptime*float64(time.Second))))
	fmt.Fprintf(stdout, "  Exit code:  %d\n", crash.ExitCode)
	if crash.Signal != "" {
		fmt.Fprintf(stdout, "  Signal:     %s\n", crash.Signal)
	}
	reason := crash.Reason
	if crash.Details != "" {
		reason += ": " + crash.Details
	}
	fmt.Fprintf(stdout, "  Reason:     %s\n", reason)
	if crash.Location != "" {
		fmt.Fprintf(stdout, "  Location:   %s\n", crash.Location)
	}

	if len(crash.Output) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Output:")
		for _, line := range crash.Output {
			fmt.Fprintf(stdout, "  %s\n", line)
		}
	}
	return nil
}
