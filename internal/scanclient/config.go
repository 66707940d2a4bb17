package scanclient

import (
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
)

// Config holds configuration for a scan run.
type Config struct {
	BaseURL      string           // Base URL of the service
	Scans        int              // Number of scans to submit
	Workers      int              // Number of concurrent submitters
	Trials       int              // Trials per candidate; 0 uses the server default
	Seed         int64            // Seed for scenario generation and scans
	Timeout      time.Duration    // HTTP request timeout
	PollInterval time.Duration    // Delay between scan status polls
	Scenario     *model.Selection // Fixed scenario; nil generates one per scan
	Candidates   []string         // Fixed candidates; empty samples from the catalog
	Verbose      bool             // Log every scan
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicate  int
	Rejected   int
	Done       int
	Incomplete int
	Failed     int
	Verified   int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Ack is the response to a scan submission.
type Ack struct {
	Status    string     `json:"status"`
	Duplicate bool       `json:"duplicate"`
	Scan      model.Scan `json:"scan"`
}
