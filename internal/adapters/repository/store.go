// Package repository stores scan results.
package repository

import (
	"context"

	"github.com/okian/rugbysim/internal/domain/model"
)

// ScanStore provides read/write access to scans.
type ScanStore interface {
	// Put inserts scan or replaces the stored scan with the same id.
	Put(ctx context.Context, scan model.Scan) error

	// Get returns the scan with id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Scan, error)

	// List returns up to limit scans, newest first.
	List(ctx context.Context, limit int) ([]model.Scan, error)

	// Count returns the number of stored scans.
	Count(ctx context.Context) int

	Close() error
}
