package scanclient

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/rugbysim/pkg/logger"
)

// SetupLogging sends logs to stderr so reports on stdout stay clean. When
// logFile is set, logs are also appended to it.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// File permission constants.
const logFilePermission = 0o600

// ShowHelp prints usage information for the playbook tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Rugbysim Playbook
=================

Runs Monte Carlo play scans and prints their reports.

Usage:
  playbook [options]

Without -url an in-process server is started on a loopback port.

Options:
  -url string        Base URL of a running service
  -scans int         Number of scans to submit (default 1)
  -workers int       Number of concurrent submitters (default 4)
  -trials int        Trials per candidate play (default: server default)
  -seed int          Seed for scenario generation and scans (default 42)
  -zone, -defense, -ruck, -source, -level, -carrier string
                     Fixed scenario; all six are required together
  -phase int         Phase of the fixed scenario (default 1)
  -plays string      Comma-separated candidate plays (default: whole catalog)
  -timeout duration  HTTP request timeout (default 30s)
  -log string        Also append logs to this file
  -verbose           Log every scan
  -help              Show this help message

Examples:
  # One scan of a random scenario against a local in-process server
  playbook

  # A fixed scenario against a running service
  playbook -url http://localhost:9080 -zone red_zone -defense blitz \
    -ruck quick -source lineout -level club -carrier power_12 \
    -plays power_pod,edge_sweep -trials 5000

  # Load a running service with 200 generated scans
  playbook -url http://localhost:9080 -scans 200 -workers 16
`)
}
