package scanclient

import "time"

// Defaults applied to a zero Config.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
	DefaultWorkers      = 4
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	percentageMultiplier    = 100
	maxErrorBody            = 4096
)
