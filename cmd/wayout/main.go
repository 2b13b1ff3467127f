// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/wayout/internal/app"
)

var (
	version = "0.1"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to catalog file (default: $WAYOUT_CONFIG or auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to catalog file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides HOST)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides PORT)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("wayout %s\n", version)
		os.Exit(0)
	}

	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("App error: %v", err)
	}
}
