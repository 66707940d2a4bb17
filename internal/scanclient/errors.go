package scanclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrInconsistent is returned when a recommendation fails verification.
	ErrInconsistent = errors.New("inconsistent recommendation")
	// ErrNoScans is returned when a run has nothing to submit.
	ErrNoScans = errors.New("no scans to run")
)

// APIError is a non-success response from the service.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.Status, e.Code, e.Message)
}
