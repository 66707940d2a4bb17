package api

import (
	"errors"
	"net/http"
	"strings"
)

// TreeHandler serves decision tree navigation.
type TreeHandler struct {
	deps TreeDependencies
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(deps TreeDependencies) *TreeHandler {
	return &TreeHandler{deps: deps}
}

// advanceRequest mirrors the OpenAPI schema for POST /tree/advance. An
// empty node means the start node.
type advanceRequest struct {
	Node  string `json:"node"`
	Label string `json:"label"`
}

// HandleGetTree handles GET /tree requests.
func (h *TreeHandler) HandleGetTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Tree())
}

// HandleAdvance handles POST /tree/advance requests.
func (h *TreeHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	const op = "api.tree_advance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req advanceRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing label")))
		return
	}
	step, err := h.deps.Advance(req.Node, req.Label)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, step)
}
