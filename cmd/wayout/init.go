// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const initConfigFile = "applications.hjson"

type appEntry struct {
	ID         string
	Name       string
	Executable string
	Args       []string
}

// runInit handles the "wayout init" command
func runInit(args []string) error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(args)

	if *showHelp {
		fmt.Println(`Usage: wayout init [options]

Create an applications.hjson catalog in the current directory.

Options:
  -h, -help    Show this help message

After running init:
  1. Review and edit applications.hjson as needed
  2. Run: ./wayout
  3. Open: http://localhost:3001`)
		return nil
	}

	if _, err := os.Stat(initConfigFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", initConfigFile)
	}

	apps := promptApps(bufio.NewReader(os.Stdin), os.Stdout)

	if err := os.WriteFile(initConfigFile, []byte(generateConfig(apps)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", initConfigFile)
	return nil
}

func promptApps(reader *bufio.Reader, out io.Writer) []appEntry {
	fmt.Fprintln(out, "wayout catalog setup")
	fmt.Fprintln(out, "Press Enter to accept defaults shown in [brackets].")
	fmt.Fprintln(out)

	var apps []appEntry
	for {
		add := prompt(reader, out, "Add an application? (y/n)", "n")
		if strings.ToLower(add) != "y" {
			break
		}
		var e appEntry
		e.Executable = prompt(reader, out, "  Executable", "/usr/bin/gnome-calculator")
		e.ID = prompt(reader, out, "  Id", defaultID(e.Executable))
		e.Name = prompt(reader, out, "  Display name", e.ID)
		if a := prompt(reader, out, "  Arguments (space separated, or empty)", ""); a != "" {
			e.Args = strings.Fields(a)
		}
		apps = append(apps, e)
		fmt.Fprintln(out)
	}
	return apps
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func defaultID(executable string) string {
	base := executable
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		return "app"
	}
	return base
}

// escapeHJSONValue escapes a string for safe inclusion in an HJSON double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func quote(s string) string {
	return `"` + escapeHJSONValue(s) + `"`
}

func generateConfig(apps []appEntry) string {
	var sb strings.Builder

	sb.WriteString(`{
  // wayout application catalog (HJSON: JSON with comments and relaxed syntax)

  applications: [
`)

	if len(apps) == 0 {
		sb.WriteString(`    // {
    //   id: "calculator"                       // unique, used in API paths
    //   name: "Calculator"
    //   description: "Basic calculator"
    //   icon: "calculator.svg"
    //   category: "utilities"
    //   executable: "/usr/bin/gnome-calculator"
    //   args: []
    //   env: { GDK_BACKEND: "wayland" }
    //   // workDir: "/home/me"
    //   // pty: true                           // for programs that need a terminal
    // }
`)
	}
	for _, a := range apps {
		sb.WriteString("    {\n")
		sb.WriteString("      id: " + quote(a.ID) + "\n")
		sb.WriteString("      name: " + quote(a.Name) + "\n")
		sb.WriteString("      executable: " + quote(a.Executable) + "\n")
		if len(a.Args) > 0 {
			quoted := make([]string, len(a.Args))
			for i, arg := range a.Args {
				quoted[i] = quote(arg)
			}
			sb.WriteString("      args: [" + strings.Join(quoted, ", ") + "]\n")
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString(`  ]

  // Injected into every application's environment. WAYLAND_DISPLAY is only
  // set when the server's own environment does not carry one.
  display: {
    wayland_display: "wayland-0"
    session_type: "wayland"
  }

  supervisor: {
    // Delay between the stop signal and SIGKILL
    grace_period: "5s"
    // SIGTERM, SIGINT or SIGHUP
    stop_signal: "SIGTERM"
    // Lines of output kept per running application
    log_buffer_size: 1000
  }

  events: {
    history: {
      max_events: 1000
      max_age: "1h"
    }
  }

  // Publish application.binary_changed when a running app's executable changes
  watch: {
    enabled: true
    debounce: "250ms"
  }
}
`)
	return sb.String()
}
