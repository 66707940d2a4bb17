package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/okian/rugbysim/internal/domain/model"
)

const (
	defaultScanListLimit = 20
	maxScanListLimit     = 100
)

// ScansHandler handles asynchronous scan requests.
type ScansHandler struct {
	deps ScanDependencies
}

// NewScansHandler creates a new scans handler.
func NewScansHandler(deps ScanDependencies) *ScansHandler {
	return &ScansHandler{deps: deps}
}

type ackResponse struct {
	Status    string     `json:"status"`
	Duplicate bool       `json:"duplicate"`
	Scan      model.Scan `json:"scan"`
}

// HandleScans handles POST /scans and GET /scans?limit=N requests.
func (h *ScansHandler) HandleScans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePostScan(w, r)
	case http.MethodGet:
		h.handleListScans(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ScansHandler) handlePostScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_scan"
	var req model.ScanRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	scan, dup, err := h.deps.SubmitScan(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, Scan: scan})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Scan: scan})
}

func (h *ScansHandler) handleListScans(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scans"
	limit := defaultScanListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxScanListLimit {
			writeFailure(w, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	scans, err := h.deps.ListScans(r.Context(), limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// HandleGetScan handles GET /scans/{id} requests.
func (h *ScansHandler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scan"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	scan, err := h.deps.Scan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

// HandleGetReport handles GET /scans/{id}/report requests.
func (h *ScansHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Render fully before writing so a failure can still set the status.
	var buf bytes.Buffer
	if err := h.deps.WriteReport(r.Context(), r.PathValue("id"), &buf); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
