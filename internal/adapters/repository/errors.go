package repository

import "errors"

// Sentinel kinds for scan store errors.
var (
	ErrNotFound     = errors.New("scan not found")
	ErrInvalidLimit = errors.New("invalid scan list limit")
	ErrInvalidScan  = errors.New("invalid scan")
)
