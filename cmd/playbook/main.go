package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/scanclient"
)

// Default configuration constants.
const (
	defaultSeed    = 42
	defaultRunTime = 10 * time.Minute
)

var errPartialScenario = errors.New("-zone, -defense, -ruck, -source, -level and -carrier must be given together")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("playbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		baseURL = fs.String("url", "", "Base URL of a running service (default: in-process server)")
		scans   = fs.Int("scans", 1, "Number of scans to submit")
		workers = fs.Int("workers", scanclient.DefaultWorkers, "Number of concurrent submitters")
		trials  = fs.Int("trials", 0, "Trials per candidate play (0 uses the server default)")
		seed    = fs.Int64("seed", defaultSeed, "Seed for scenario generation and scans")
		timeout = fs.Duration("timeout", scanclient.DefaultTimeout, "HTTP request timeout")
		plays   = fs.String("plays", "", "Comma-separated candidate plays")
		logFile = fs.String("log", "", "Also append logs to this file")
		verbose = fs.Bool("verbose", false, "Log every scan")
		help    = fs.Bool("help", false, "Show help")
		sel     model.Selection
	)
	fs.StringVar(&sel.Zone, "zone", "", "Field zone")
	fs.StringVar(&sel.Defense, "defense", "", "Defensive system")
	fs.StringVar(&sel.Ruck, "ruck", "", "Ruck speed")
	fs.StringVar(&sel.Source, "source", "", "Possession source")
	fs.StringVar(&sel.Level, "level", "", "Competition level")
	fs.StringVar(&sel.Carrier, "carrier", "", "Ball carrier archetype")
	fs.IntVar(&sel.Phase, "phase", 1, "Phase number")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		scanclient.ShowHelp(stdout)
		return 0
	}

	scenario, err := scenarioFrom(sel)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	closer, err := scanclient.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Failed to setup logging: "+err.Error())
		return 1
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)
	defer cancel()

	url := *baseURL
	if url == "" {
		local, err := startLocal(ctx, *seed)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, "Failed to start local service: "+err.Error())
			return 1
		}
		defer local.Close()
		url = local.URL
	}

	cfg := &scanclient.Config{
		BaseURL:    url,
		Scans:      *scans,
		Workers:    *workers,
		Trials:     *trials,
		Seed:       *seed,
		Timeout:    *timeout,
		Scenario:   scenario,
		Candidates: splitPlays(*plays),
		Verbose:    *verbose,
	}
	if _, err := scanclient.Run(ctx, cfg, stdout); err != nil {
		_, _ = fmt.Fprintln(stderr, "Scan run failed: "+err.Error())
		return 1
	}
	return 0
}

// scenarioFrom returns nil when no scenario flag is set.
func scenarioFrom(sel model.Selection) (*model.Selection, error) {
	fields := []string{sel.Zone, sel.Defense, sel.Ruck, sel.Source, sel.Level, sel.Carrier}
	set := 0
	for _, f := range fields {
		if f != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case len(fields):
		return &sel, nil
	default:
		return nil, errPartialScenario
	}
}

func splitPlays(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
