// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/review"
	"github.com/okian/rugbysim/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	EngineDependencies
	TreeDependencies
	ReviewDependencies
	ScanDependencies
}

// CatalogDependencies exposes the read-only catalog.
type CatalogDependencies interface {
	Catalog() *catalog.Registry
}

// EngineDependencies runs synchronous simulations.
type EngineDependencies interface {
	Aggregate(ctx context.Context, req types.AggregateRequest) (model.AggregateResult, error)
	Recommend(ctx context.Context, req model.ScanRequest) (model.Recommendation, error)
	Simulate(ctx context.Context, req types.SimulateRequest) (model.State, error)
}

// TreeDependencies navigates the decision tree.
type TreeDependencies interface {
	Tree() catalog.DecisionTree
	Advance(node, label string) (types.TreeStep, error)
}

// ReviewDependencies classifies logged calls.
type ReviewDependencies interface {
	Review(call review.LoggedCall) (review.Verdict, error)
}

// ScanDependencies submits and reads asynchronous scans.
type ScanDependencies interface {
	SubmitScan(ctx context.Context, req model.ScanRequest) (model.Scan, bool, error)
	Scan(ctx context.Context, id string) (model.Scan, error)
	ListScans(ctx context.Context, limit int) ([]model.Scan, error)
	WriteReport(ctx context.Context, id string, w io.Writer) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	catalogHandler *CatalogHandler
	engineHandler  *EngineHandler
	treeHandler    *TreeHandler
	reviewHandler  *ReviewHandler
	scansHandler   *ScansHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		catalogHandler: NewCatalogHandler(deps),
		engineHandler:  NewEngineHandler(deps),
		treeHandler:    NewTreeHandler(deps),
		reviewHandler:  NewReviewHandler(deps),
		scansHandler:   NewScansHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/catalog", MetricsMiddleware(s.catalogHandler.HandleGetCatalog, "catalog"))
	mux.HandleFunc("/aggregate", MetricsMiddleware(s.engineHandler.HandleAggregate, "aggregate"))
	mux.HandleFunc("/recommend", MetricsMiddleware(s.engineHandler.HandleRecommend, "recommend"))
	mux.HandleFunc("/simulate", MetricsMiddleware(s.engineHandler.HandleSimulate, "simulate"))
	mux.HandleFunc("/tree", MetricsMiddleware(s.treeHandler.HandleGetTree, "tree"))
	mux.HandleFunc("/tree/advance", MetricsMiddleware(s.treeHandler.HandleAdvance, "tree_advance"))
	mux.HandleFunc("/review", MetricsMiddleware(s.reviewHandler.HandleReview, "review"))
	mux.HandleFunc("/scans", MetricsMiddleware(s.scansHandler.HandleScans, "scans"))
	mux.HandleFunc("/scans/{id}", MetricsMiddleware(s.scansHandler.HandleGetScan, "scan"))
	mux.HandleFunc("/scans/{id}/report", MetricsMiddleware(s.scansHandler.HandleGetReport, "scan_report"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected so typos in scenario keys do not pass silently.
func decodeJSON(op string, r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, fmt.Errorf("decode body: %w", err))
	}
	return nil
}
