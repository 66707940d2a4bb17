package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/pkg/metrics"
)

// MemoryStore is an in-process ScanStore.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]model.Scan
	order []string // insertion order, oldest first
	opts  storeOptions

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore constructs a memory store and starts its metrics updater,
// which runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		byID:     make(map[string]model.Scan),
		opts:     o,
		stopChan: make(chan struct{}),
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Put implements ScanStore.
func (s *MemoryStore) Put(ctx context.Context, scan model.Scan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if scan.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidScan)
	}

	s.mu.Lock()
	if _, exists := s.byID[scan.ID]; !exists {
		if s.opts.capacity > 0 && len(s.order) >= s.opts.capacity {
			s.evictOldestFinished()
		}
		s.order = append(s.order, scan.ID)
	}
	s.byID[scan.ID] = scan
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredScans(n)
	return nil
}

// evictOldestFinished drops the oldest scan that is no longer running.
// Must be called with s.mu held.
func (s *MemoryStore) evictOldestFinished() {
	for i, id := range s.order {
		if s.byID[id].Finished() {
			delete(s.byID, id)
			s.order = slices.Delete(s.order, i, i+1)
			return
		}
	}
}

// Get implements ScanStore.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Scan, error) {
	if err := ctx.Err(); err != nil {
		return model.Scan{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	scan, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Scan{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return scan, nil
}

// List implements ScanStore.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]model.Scan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Scan, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}

// Count implements ScanStore.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredScans(s.Count(ctx))
			}
		}
	}()
}

var _ ScanStore = (*MemoryStore)(nil)
