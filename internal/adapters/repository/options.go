package repository

import "time"

type storeOptions struct {
	metricsUpdateInterval time.Duration
	capacity              int
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		metricsUpdateInterval: 5 * time.Second,
		capacity:              10000,
	}
}

// Option applies a configuration option to a scan store.
type Option func(*storeOptions)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *storeOptions) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithCapacity bounds how many scans the in-memory store keeps. When full,
// the oldest finished scan is dropped. Zero or negative means unbounded.
func WithCapacity(n int) Option {
	return func(o *storeOptions) {
		o.capacity = n
	}
}
