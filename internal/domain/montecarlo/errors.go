package montecarlo

import "errors"

// ErrInvalidTrialCount is returned when fewer than one trial is requested.
var ErrInvalidTrialCount = errors.New("invalid trial count")
