/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Command triage is a minimal demo entrypoint: run the pipeline once
// against one or more files and print the resulting JSON reports. A
// full CLI surface (subcommands, shell completion, config file
// discovery) is out of scope (spec §1 non-goals); this is the smallest
// wrapper that runs the library from a shell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/driver"
	"github.com/binsift/triage/report"
	"github.com/binsift/triage/triage"
	"github.com/binsift/triage/triagelog"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML/TOML config file (defaults built in if unset)")
	concurrency = flag.Int("j", 4, "Maximum number of artifacts to analyze concurrently")
	verbose     = flag.Bool("verbose", false, "Log stage progress to stderr")
	validate    = flag.Bool("validate", false, "Validate each report against the embedded JSON Schema before printing")
)

func main() {
	os.Exit(run())
}

// run holds everything that needs its deferred cleanup to actually
// fire; main only forwards the exit code, since os.Exit skips defers.
func run() int {
	flag.Parse()
	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("triage: at least one input file path is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("triage: %v", err)
	}

	lvl := triagelog.WARN
	if *verbose {
		lvl = triagelog.DEBUG
	}
	logger := triagelog.New(lvl, os.Stderr)
	defer logger.Sync()

	engine := triage.NewEngine(cfg)
	d := driver.New(engine, *concurrency, logger)

	results := d.AnalyzeAll(context.Background(), paths)
	exitCode := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			exitCode = 1
			continue
		}
		if err := printArtifact(r.Artifact); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, err)
			exitCode = 1
		}
	}
	return exitCode
}

// loadConfig dispatches on the config file's extension since the
// config package exposes format-specific loaders rather than a single
// sniffing entrypoint (spec §6: "no environment variables or implicit
// global state required at the core level" — the demo still has to
// pick a format somehow, so it does it by the most explicit signal
// available, the extension the user gave it).
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return config.LoadTOML(path)
	default:
		return config.LoadYAML(path)
	}
}

func printArtifact(a *report.TriagedArtifact) error {
	if *validate {
		data, err := report.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		if err := report.Validate(data); err != nil {
			return fmt.Errorf("schema validation: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	data, err := report.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
