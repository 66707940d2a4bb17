// Package service wires the simulation engine, the scan pipeline and the
// scan store behind the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/rugbysim/internal/adapters/mq/queue"
	"github.com/okian/rugbysim/internal/adapters/mq/worker"
	"github.com/okian/rugbysim/internal/adapters/repository"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/dedupe"
	"github.com/okian/rugbysim/internal/domain/outcome"
	"github.com/okian/rugbysim/internal/domain/plan"
	"github.com/okian/rugbysim/internal/domain/review"
	"github.com/okian/rugbysim/internal/domain/scoring"
	"github.com/okian/rugbysim/internal/domain/tree"
	"github.com/okian/rugbysim/pkg/logger"
	"github.com/okian/rugbysim/pkg/metrics"
)

// Service implements the API dependencies for the play recommendation
// engine.
type Service struct {
	mu sync.RWMutex

	// Engine, built by New.
	catalog   *catalog.Registry
	sim       *plan.Simulator
	navigator *tree.Navigator
	reviewer  *review.Reviewer

	// Scan pipeline, built by Start.
	store      repository.ScanStore
	deduper    dedupe.Deduper
	scanQueue  *queue.InMemoryQueue
	workerPool *worker.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	defaultTrials int
	maxTrials     int
	riskWeight    float64
	seed          int64
	trialWorkers  int
	scanTimeout   time.Duration
	shutdownGrace time.Duration
	storePath     string

	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a Service. The engine is usable right away; scans need
// Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     1024,
		dedupeSize:    10_000,
		defaultTrials: 1000,
		maxTrials:     100_000,
		riskWeight:    scoring.DefaultRiskWeight,
		seed:          42,
		trialWorkers:  1,
		scanTimeout:   30 * time.Second,
		shutdownGrace: 30 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.catalog == nil {
		reg, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load embedded catalog: %w", err)
		}
		s.catalog = reg
	}

	var err error
	if s.sim, err = plan.New(s.catalog, outcome.New()); err != nil {
		return nil, fmt.Errorf("build plan simulator: %w", err)
	}
	if s.navigator, err = tree.New(s.catalog); err != nil {
		return nil, fmt.Errorf("build decision tree: %w", err)
	}
	if s.reviewer, err = review.New(s.catalog); err != nil {
		return nil, fmt.Errorf("build reviewer: %w", err)
	}
	return s, nil
}

// Start opens the scan store and starts the scan workers. The workers
// outlive ctx; only Stop ends them, so queued scans always reach a final
// status.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting rugbysim service...")
	runCtx := context.WithoutCancel(ctx)

	if s.store == nil {
		if s.storePath != "" {
			store, err := repository.OpenSQLite(s.storePath)
			if err != nil {
				return fmt.Errorf("open scan store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite scan store", logger.String("path", s.storePath))
		} else {
			s.store = repository.NewMemoryStore(runCtx, repository.WithCapacity(s.dedupeSize))
			s.logger.Info(ctx, "using memory scan store")
		}
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.scanQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.scanQueue, s, s.store,
		worker.WithScanTimeout(s.scanTimeout),
	)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "rugbysim service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("plays", len(s.catalog.Plays())),
	)
	return nil
}

// Stop lets the workers finish queued scans for up to the shutdown grace,
// then cancels the ones running and records the rest incomplete before
// closing the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping rugbysim service...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownGrace)
	defer cancel()
	if err := s.workerPool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing scan store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "rugbysim service stopped")
}

// Catalog returns the registry the service was built with.
func (s *Service) Catalog() *catalog.Registry { return s.catalog }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"defaultTrials": s.defaultTrials,
		"maxTrials":     s.maxTrials,
		"riskWeight":    s.riskWeight,
		"seed":          s.seed,
		"plays":         len(s.catalog.Plays()),
	}

	if s.started {
		queueLen := s.scanQueue.Len(ctx)
		stored := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["storedScans"] = stored
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredScans(stored)
	}
	return stats
}

func (s *Service) pipeline() (repository.ScanStore, dedupe.Deduper, *queue.InMemoryQueue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.store, s.deduper, s.scanQueue, nil
}
