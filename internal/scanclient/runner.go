package scanclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/pkg/logger"
)

// Run submits the configured scans, waits for each to finish, verifies the
// results and writes the report of every done scan to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	cfg = withDefaults(cfg)
	log := logger.Get().Named("scanclient")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting scan run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("scans", cfg.Scans),
		logger.Int("workers", cfg.Workers),
		logger.Int("trials", cfg.Trials),
		logger.Int64("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, err
	}

	// Step 2: Build scan requests
	reqs, err := buildRequests(ctx, client, cfg)
	if err != nil {
		return stats, fmt.Errorf("scan generation failed: %w", err)
	}
	stats.Generated = len(reqs)

	// Step 3: Submit and wait concurrently
	scans, firstErr := submitAll(ctx, client, cfg, reqs, stats, log)
	if stats.Accepted+stats.Duplicate == 0 {
		return stats, fmt.Errorf("every scan was rejected: %w", firstErr)
	}

	// Step 4: Resubmitting a known id must be reported as a duplicate
	if err := checkDuplicate(ctx, client, reqs, scans); err != nil {
		return stats, err
	}

	// Step 5: Verify and report
	var verifyErr error
	for _, scan := range scans {
		if scan.ID == "" {
			continue
		}
		if err := Verify(scan); err != nil {
			verifyErr = errors.Join(verifyErr, err)
			continue
		}
		stats.Verified++
		if scan.Status != model.ScanDone {
			continue
		}
		text, err := client.Report(ctx, scan.ID)
		if err != nil {
			return stats, fmt.Errorf("report %s: %w", scan.ID, err)
		}
		if _, err := io.WriteString(out, text+"\n"); err != nil {
			return stats, fmt.Errorf("write report: %w", err)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	log.Info(ctx, "scan run completed successfully")
	return stats, nil
}

func withDefaults(cfg *Config) *Config {
	c := *cfg
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Scans < 1 {
		c.Scans = 1
	}
	if c.Workers < 1 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return &c
}

func buildRequests(ctx context.Context, client *Client, cfg *Config) ([]model.ScanRequest, error) {
	if cfg.Scenario != nil && len(cfg.Candidates) > 0 {
		return Fixed(*cfg.Scenario, cfg.Candidates, cfg.Scans, cfg.Seed, cfg.Trials)
	}
	data, err := client.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if cfg.Scenario != nil {
		keys := make([]string, 0, len(data.Plays))
		for _, p := range data.Plays {
			keys = append(keys, p.Key)
		}
		return Fixed(*cfg.Scenario, keys, cfg.Scans, cfg.Seed, cfg.Trials)
	}
	reqs, err := Generate(data, cfg.Scans, cfg.Seed, cfg.Trials)
	if err != nil {
		return nil, err
	}
	if len(cfg.Candidates) > 0 {
		for i := range reqs {
			reqs[i].Candidates = append([]string(nil), cfg.Candidates...)
		}
	}
	return reqs, nil
}

// submitAll runs a worker pool that submits each request and waits for it
// to finish. scans is indexed like reqs; rejected entries stay zero.
func submitAll(ctx context.Context, client *Client, cfg *Config, reqs []model.ScanRequest, stats *Stats, log logger.Logger) ([]model.Scan, error) {
	scans := make([]model.Scan, len(reqs))
	var (
		submitted, accepted, duplicate, rejected int64
		firstErr                                 error
		errOnce                                  sync.Once
	)

	idx := make(chan int, cfg.Workers*workerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				atomic.AddInt64(&submitted, 1)
				ack, err := client.Submit(ctx, reqs[i])
				if err != nil {
					atomic.AddInt64(&rejected, 1)
					errOnce.Do(func() { firstErr = err })
					log.Warn(ctx, "scan rejected", logger.String("scan_id", reqs[i].ID), logger.Error(err))
					continue
				}
				if ack.Duplicate {
					atomic.AddInt64(&duplicate, 1)
				} else {
					atomic.AddInt64(&accepted, 1)
				}
				scan, err := client.Wait(ctx, reqs[i].ID, cfg.PollInterval)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					log.Warn(ctx, "scan did not finish", logger.String("scan_id", reqs[i].ID), logger.Error(err))
					continue
				}
				scans[i] = scan
				if cfg.Verbose {
					log.Info(ctx, "scan finished",
						logger.String("scan_id", scan.ID),
						logger.String("status", scan.Status),
						logger.String("scenario", scan.Scenario))
				}
			}
		}()
	}

	go func() {
		defer close(idx)
		for i := range reqs {
			select {
			case <-ctx.Done():
				return
			case idx <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted)
	stats.Accepted = int(accepted)
	stats.Duplicate = int(duplicate)
	stats.Rejected = int(rejected)
	for _, s := range scans {
		switch s.Status {
		case model.ScanDone:
			stats.Done++
		case model.ScanIncomplete:
			stats.Incomplete++
		case model.ScanFailed:
			stats.Failed++
		}
	}
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	return scans, firstErr
}

func checkDuplicate(ctx context.Context, client *Client, reqs []model.ScanRequest, scans []model.Scan) error {
	for i, s := range scans {
		if s.ID == "" {
			continue
		}
		ack, err := client.Submit(ctx, reqs[i])
		if err != nil {
			return fmt.Errorf("resubmit %s: %w", s.ID, err)
		}
		if !ack.Duplicate || ack.Scan.Status != s.Status {
			return fmt.Errorf("%w: resubmitted scan %s not reported as a duplicate", ErrInconsistent, s.ID)
		}
		return nil
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, scansPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Done) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		scansPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("done", stats.Done),
		logger.Int("incomplete", stats.Incomplete),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("scansPerSecond", scansPerSecond))
}
