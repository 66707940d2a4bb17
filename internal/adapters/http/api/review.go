package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/rugbysim/internal/domain/review"
)

// ReviewHandler classifies logged calls.
type ReviewHandler struct {
	deps ReviewDependencies
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(deps ReviewDependencies) *ReviewHandler {
	return &ReviewHandler{deps: deps}
}

// HandleReview handles POST /review requests.
func (h *ReviewHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	const op = "api.review"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var call review.LoggedCall
	if err := decodeJSON(op, r, &call); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(call.Call) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing call")))
		return
	}
	v, err := h.deps.Review(call)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}
