package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/pkg/metrics"
	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	doc        TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS scans_created_at ON scans (created_at)`,
}

// SQLiteStore keeps scans in a SQLite database file so finished scans
// survive a restart.
type SQLiteStore struct {
	sqlDB *sql.DB
	opts  storeOptions

	wg        sync.WaitGroup
	stopChan  chan struct{}
	closeOnce sync.Once
}

// OpenSQLite opens (creating if needed) the database at path and starts
// its metrics updater, which runs until Close. WithCapacity does not apply.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &SQLiteStore{sqlDB: sqlDB, opts: o, stopChan: make(chan struct{})}
	s.startMetricsUpdater()
	return s, nil
}

// Close stops the metrics updater and releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		err = s.sqlDB.Close()
	})
	return err
}

func (s *SQLiteStore) startMetricsUpdater() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.metricsUpdateInterval)
		defer ticker.Stop()

		metrics.UpdateStoredScans(s.Count(context.Background()))
		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredScans(s.Count(context.Background()))
			}
		}
	}()
}

// Put implements ScanStore.
func (s *SQLiteStore) Put(ctx context.Context, scan model.Scan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if scan.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidScan)
	}
	doc, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("encode scan: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO scans (id, status, created_at, doc) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET status = excluded.status, doc = excluded.doc
`, scan.ID, scan.Status, scan.CreatedAt.UTC().UnixMilli(), string(doc))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("put scan: %w", err)
	}
	return nil
}

// Get implements ScanStore.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Scan, error) {
	if err := ctx.Err(); err != nil {
		return model.Scan{}, err
	}
	var doc string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT doc FROM scans WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Scan{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Scan{}, fmt.Errorf("get scan: %w", err)
	}
	return decodeScan(doc)
}

// List implements ScanStore.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]model.Scan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT doc FROM scans
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Scan, 0, min(limit, 100))
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		scan, err := decodeScan(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

// Count implements ScanStore. Errors count as zero.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func decodeScan(doc string) (model.Scan, error) {
	var scan model.Scan
	if err := json.Unmarshal([]byte(doc), &scan); err != nil {
		return model.Scan{}, fmt.Errorf("decode scan: %w", err)
	}
	return scan, nil
}

var _ ScanStore = (*SQLiteStore)(nil)
