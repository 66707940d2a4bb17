// Package worker drains the scan queue and runs each scan to completion.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rugbysim/internal/adapters/repository"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/pkg/logger"
	"github.com/okian/rugbysim/pkg/metrics"
)

const (
	poolShutdownTimeout = 30 * time.Second
	poolAbortTimeout    = 5 * time.Second
)

// Runner executes a scan request.
type Runner interface {
	RunScan(ctx context.Context, req model.ScanRequest) (model.Recommendation, error)
}

// Store persists scan state transitions.
type Store interface {
	Get(ctx context.Context, id string) (model.Scan, error)
	Put(ctx context.Context, scan model.Scan) error
}

// Queue defines how workers receive requests and how the pool empties
// the queue on shutdown.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.ScanRequest
	Drain() []model.ScanRequest
	Len(ctx context.Context) int
	Close() error
}

// Worker processes scan requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the scan in hand finishes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	runner      Runner
	store       Store
	name        string
	scanTimeout time.Duration
	now         func() time.Time

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		store:    store,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.queue.Len(ctx) // refresh queue gauges
			if err := w.Process(ctx, req); err != nil {
				w.logger.Error(ctx, "error processing scan",
					logger.String("scan_id", req.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process runs one scan and records every status change. A scan cut short
// by its deadline or by shutdown ends incomplete; any other runner error
// ends failed. The returned error reports storage problems only.
func (w *InMemoryWorker) Process(ctx context.Context, req model.ScanRequest) error { //nolint:gocritic // hugeParam: requests travel by value over the channel
	start := time.Now()
	metrics.AddWorkerBusy(1)
	defer func() {
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	// State writes outlive the scan context so a cancelled scan is still
	// recorded as incomplete.
	storeCtx := context.WithoutCancel(ctx)

	scan, err := w.store.Get(storeCtx, req.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.RecordWorkerError()
			return fmt.Errorf("load scan %s: %w", req.ID, err)
		}
		scan = model.Scan{ID: req.ID, Request: req, CreatedAt: w.now()}
	}
	scan.Status = model.ScanRunning
	if err := w.store.Put(storeCtx, scan); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("mark scan %s running: %w", req.ID, err)
	}
	metrics.RecordScan(model.ScanRunning)

	scanCtx, cancel := ctx, context.CancelFunc(func() {})
	if w.scanTimeout > 0 {
		scanCtx, cancel = context.WithTimeout(ctx, w.scanTimeout)
	}
	rec, runErr := w.runner.RunScan(scanCtx, req)
	cancel()

	scan.CompletedAt = w.now()
	switch {
	case runErr == nil:
		scan.Status = model.ScanDone
		scan.Recommendation = &rec
		metrics.RecordRecommendation(rec.Best.Play)
	case errors.Is(runErr, context.DeadlineExceeded), errors.Is(runErr, context.Canceled):
		scan.Status = model.ScanIncomplete
		scan.Error = runErr.Error()
	default:
		scan.Status = model.ScanFailed
		scan.Error = runErr.Error()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scan_failed")
	}
	metrics.RecordScan(scan.Status)
	metrics.RecordScanLatency(float64(time.Since(start).Milliseconds()))

	if err := w.store.Put(storeCtx, scan); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store scan %s: %w", req.ID, err)
	}
	w.logger.Info(ctx, "scan finished",
		logger.String("scan_id", scan.ID),
		logger.String("status", scan.Status),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Abandon records a scan that will never run as incomplete.
func (w *InMemoryWorker) Abandon(ctx context.Context, req model.ScanRequest, reason string) error { //nolint:gocritic // hugeParam: requests travel by value over the channel
	scan, err := w.store.Get(ctx, req.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.RecordWorkerError()
			return fmt.Errorf("load scan %s: %w", req.ID, err)
		}
		scan = model.Scan{ID: req.ID, Request: req, CreatedAt: w.now()}
	}
	if scan.Finished() {
		return nil
	}
	scan.Status = model.ScanIncomplete
	scan.Error = reason
	scan.CompletedAt = w.now()
	if err := w.store.Put(ctx, scan); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store scan %s: %w", req.ID, err)
	}
	metrics.RecordScan(scan.Status)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPool creates a pool of workerCount workers. Values below one default
// to the number of CPUs, since each scan is CPU bound.
func NewPool(workerCount int, q Queue, runner Runner, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, runner, store, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Cancelling ctx aborts the scans in
// hand; Shutdown is the orderly way to stop.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
}

// Shutdown closes the queue and gives the workers until ctx's deadline, or
// poolShutdownTimeout when ctx has none, to finish what is queued. Scans
// still running then are cancelled and end incomplete, and scans still
// waiting are recorded incomplete without running.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	var shutdownErr error
	if cancel != nil {
		graceCtx, stop := ctx, context.CancelFunc(func() {})
		if _, ok := ctx.Deadline(); !ok {
			graceCtx, stop = context.WithTimeout(ctx, poolShutdownTimeout)
		}
		err := p.wait(graceCtx)
		stop()
		if err != nil {
			shutdownErr = fmt.Errorf("worker pool shutdown: %w", err)
			p.logger.Warn(ctx, "shutdown grace expired, cancelling running scans",
				logger.Int("queued", p.queue.Len(ctx)),
			)
			cancel()
			abortCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), poolAbortTimeout)
			if err := p.wait(abortCtx); err != nil {
				p.logger.Error(ctx, "workers did not stop after cancel", logger.Error(err))
			}
			stop()
		}
		cancel()
	}

	storeCtx := context.WithoutCancel(ctx)
	left := p.queue.Drain()
	for _, req := range left {
		if err := p.workers[0].Abandon(storeCtx, req, "service shut down before the scan ran"); err != nil {
			p.logger.Error(ctx, "error recording abandoned scan",
				logger.String("scan_id", req.ID),
				logger.Error(err),
			)
		}
	}
	if len(left) > 0 {
		p.logger.Warn(ctx, "queued scans marked incomplete", logger.Int("count", len(left)))
	}
	metrics.UpdateWorkerCount(0)
	return shutdownErr
}

func (p *Pool) wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return ctx.Err()
		}
	}
	return nil
}
