package model

import "errors"

// Context construction errors.
var (
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrInvalidOverride = errors.New("invalid override")
)
