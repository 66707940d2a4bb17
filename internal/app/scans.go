package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/okian/rugbysim/internal/adapters/mq/queue"
	"github.com/okian/rugbysim/internal/adapters/repository"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/montecarlo"
	"github.com/okian/rugbysim/internal/domain/report"
	"github.com/okian/rugbysim/internal/domain/scoring"
	"github.com/okian/rugbysim/pkg/logger"
	"github.com/okian/rugbysim/pkg/metrics"
)

// SubmitScan validates req, stores it as queued and hands it to the workers.
// A request without an id gets a fresh one. Resubmitting a known id returns
// the stored scan and reports it as a duplicate.
func (s *Service) SubmitScan(ctx context.Context, req model.ScanRequest) (model.Scan, bool, error) { //nolint:gocritic // hugeParam: request is a value type across the API
	store, deduper, q, err := s.pipeline()
	if err != nil {
		return model.Scan{}, false, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// Validate before recording the id so a rejected request can be resent.
	c, err := model.NewContext(s.catalog, req.Selection)
	if err != nil {
		return model.Scan{}, false, err
	}
	if len(req.Candidates) == 0 {
		return model.Scan{}, false, scoring.ErrEmptyCandidateSet
	}
	if _, err := s.sim.Resolve(req.Candidates); err != nil {
		return model.Scan{}, false, err
	}
	if req.Trials, err = s.trials(req.Trials); err != nil {
		return model.Scan{}, false, err
	}
	if req.Trials < 1 {
		return model.Scan{}, false, fmt.Errorf("%w: %d", montecarlo.ErrInvalidTrialCount, req.Trials)
	}
	req.Seed = s.seedOr(req.Seed)

	if deduper.SeenAndRecord(ctx, req.ID) {
		metrics.RecordScanDuplicate()
		scan, err := store.Get(ctx, req.ID)
		if errors.Is(err, repository.ErrNotFound) {
			// The first submission has not been stored yet.
			return model.Scan{ID: req.ID, Status: model.ScanQueued, Scenario: c.Describe(), Request: req}, true, nil
		}
		return scan, true, err
	}
	// The deduper forgets ids on eviction and restart; the store does not.
	if existing, err := store.Get(ctx, req.ID); err == nil && !rejected(existing) {
		metrics.RecordScanDuplicate()
		return existing, true, nil
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		deduper.Unrecord(ctx, req.ID)
		return model.Scan{}, false, fmt.Errorf("load scan %s: %w", req.ID, err)
	}

	scan := model.Scan{
		ID:        req.ID,
		Status:    model.ScanQueued,
		Scenario:  c.Describe(),
		Request:   req,
		CreatedAt: s.now(),
	}
	if err := store.Put(ctx, scan); err != nil {
		deduper.Unrecord(ctx, req.ID)
		return model.Scan{}, false, fmt.Errorf("store scan %s: %w", req.ID, err)
	}
	metrics.RecordScan(model.ScanQueued)

	if err := q.Enqueue(ctx, req); err != nil {
		deduper.Unrecord(ctx, req.ID)
		scan.Status = model.ScanFailed
		scan.Error = err.Error()
		scan.CompletedAt = s.now()
		if perr := store.Put(context.WithoutCancel(ctx), scan); perr != nil {
			s.logger.Error(ctx, "failed to record rejected scan", logger.String("scan_id", req.ID), logger.Error(perr))
		}
		metrics.RecordScan(model.ScanFailed)
		return model.Scan{}, false, fmt.Errorf("enqueue scan %s: %w", req.ID, err)
	}

	s.logger.Debug(ctx, "scan queued",
		logger.String("scan_id", req.ID),
		logger.Int("candidates", len(req.Candidates)),
		logger.Int("trials", req.Trials),
	)
	return scan, false, nil
}

// rejected reports whether scan was turned away at the queue and never ran,
// which leaves its id free for a retry.
func rejected(scan model.Scan) bool { //nolint:gocritic // hugeParam: scans are values throughout
	return scan.Status == model.ScanFailed &&
		(scan.Error == queue.ErrFull.Error() || scan.Error == queue.ErrClosed.Error())
}

// Scan returns the stored state of a scan.
func (s *Service) Scan(ctx context.Context, id string) (model.Scan, error) {
	store, _, _, err := s.pipeline()
	if err != nil {
		return model.Scan{}, err
	}
	return store.Get(ctx, id)
}

// ListScans returns up to limit scans, newest first.
func (s *Service) ListScans(ctx context.Context, limit int) ([]model.Scan, error) {
	store, _, _, err := s.pipeline()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, limit)
}

// WriteReport renders the text report of a scan to w.
func (s *Service) WriteReport(ctx context.Context, id string, w io.Writer) error {
	scan, err := s.Scan(ctx, id)
	if err != nil {
		return err
	}
	return report.Write(w, scan, s.catalog)
}
