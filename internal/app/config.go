package service

import (
	"fmt"

	"github.com/okian/rugbysim/internal/config"
	"github.com/okian/rugbysim/internal/domain/catalog"
)

// FromConfig builds a Service from process configuration, loading the
// catalog file when one is set. Options in opts are applied last and win
// over cfg.
func FromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	base := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithTrials(cfg.DefaultTrials, cfg.MaxTrials),
		WithRiskWeight(cfg.RiskWeight),
		WithSeed(cfg.Seed),
		WithTrialWorkers(cfg.TrialWorkers),
		WithScanTimeout(cfg.ScanTimeout()),
		WithShutdownGrace(cfg.ShutdownGrace()),
		WithStorePath(cfg.StorePath),
	}
	if cfg.CatalogPath != "" {
		reg, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
		}
		base = append(base, WithCatalog(reg))
	}
	svc, err := New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}
	return svc, nil
}
