package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/rugbysim/internal/adapters/mq/queue"
	"github.com/okian/rugbysim/internal/adapters/repository"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/montecarlo"
	"github.com/okian/rugbysim/internal/domain/scoring"
	"github.com/okian/rugbysim/internal/domain/tree"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return e.op + ": " + e.kind.Error()
	case e.kind == nil:
		return e.op + ": " + e.err.Error()
	default:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error { return &opError{op: op, kind: kind} }

// Wrap annotates err with op.
func Wrap(op string, err error) error { return &opError{op: op, err: err} }

// WrapKind annotates err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error { return &opError{op: op, kind: kind, err: err} }

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrUnknownCatalogKey):
		return http.StatusBadRequest, "unknown_catalog_key"
	case errors.Is(err, tree.ErrUnknownTrigger):
		return http.StatusBadRequest, "unknown_trigger"
	case errors.Is(err, montecarlo.ErrInvalidTrialCount):
		return http.StatusBadRequest, "invalid_trial_count"
	case errors.Is(err, scoring.ErrEmptyCandidateSet):
		return http.StatusBadRequest, "empty_candidate_set"
	case errors.Is(err, model.ErrInvalidPhase):
		return http.StatusBadRequest, "invalid_phase"
	case errors.Is(err, model.ErrInvalidOverride):
		return http.StatusBadRequest, "invalid_override"
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, queue.ErrFull), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, scoring.ErrIncomplete), errors.Is(err, queue.ErrClosed),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
