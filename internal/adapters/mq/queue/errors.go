package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrFull   = errors.New("scan queue full")
	ErrClosed = errors.New("scan queue closed")
)
