package review

import "errors"

// Reviewer errors.
var (
	ErrInvalidRule    = errors.New("invalid review rule")
	ErrNoMatchingRule = errors.New("no review rule matched")
)
