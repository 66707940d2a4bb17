package service

import (
	"time"

	"github.com/okian/rugbysim/internal/adapters/repository"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scan workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting scans.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many scan ids are remembered for idempotency.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog replaces the embedded catalog.
func WithCatalog(reg *catalog.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.catalog = reg
		}
	}
}

// WithTrials sets the trial count used when a request leaves it unset and
// the most a request may ask for.
func WithTrials(defaultTrials, maxTrials int) Option {
	return func(s *Service) {
		if defaultTrials > 0 && maxTrials >= defaultTrials {
			s.defaultTrials = defaultTrials
			s.maxTrials = maxTrials
		}
	}
}

// WithRiskWeight sets the recommender's turnover penalty.
func WithRiskWeight(w float64) Option {
	return func(s *Service) {
		if w >= 0 {
			s.riskWeight = w
		}
	}
}

// WithSeed sets the base seed for requests without their own.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithTrialWorkers sets goroutines per aggregation.
func WithTrialWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trialWorkers = n
		}
	}
}

// WithScanTimeout bounds one asynchronous scan. Zero disables the bound.
func WithScanTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.scanTimeout = d
		}
	}
}

// WithShutdownGrace sets how long Stop waits for queued scans before it
// cancels them.
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownGrace = d
		}
	}
}

// WithStorePath keeps scans in a SQLite file instead of memory.
func WithStorePath(path string) Option {
	return func(s *Service) {
		s.storePath = path
	}
}

// WithStore injects a ready scan store. It takes precedence over
// WithStorePath.
func WithStore(store repository.ScanStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}
