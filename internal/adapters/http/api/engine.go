package api

import (
	"net/http"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/types"
)

// EngineHandler serves synchronous simulations.
type EngineHandler struct {
	deps EngineDependencies
}

// NewEngineHandler creates a new engine handler.
func NewEngineHandler(deps EngineDependencies) *EngineHandler {
	return &EngineHandler{deps: deps}
}

// recommendRequest mirrors the OpenAPI schema for POST /recommend.
type recommendRequest struct {
	Scenario   model.Selection `json:"scenario"`
	Candidates []string        `json:"candidates"`
	Trials     int             `json:"trials"`
	Seed       int64           `json:"seed"`
}

type recommendResponse struct {
	Recommendation model.Recommendation `json:"recommendation"`
	Ranking        []types.RankedPlay   `json:"ranking"`
}

type simulateResponse struct {
	Meters   float64      `json:"meters"`
	Turnover bool         `json:"turnover"`
	Phase    int          `json:"phase"`
	Zone     string       `json:"zone"`
	Steps    []model.Step `json:"steps"`
}

// HandleAggregate handles POST /aggregate requests.
func (h *EngineHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.aggregate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.AggregateRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	res, err := h.deps.Aggregate(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleRecommend handles POST /recommend requests.
func (h *EngineHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommend"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	rec, err := h.deps.Recommend(r.Context(), model.ScanRequest{
		Selection:  req.Scenario,
		Candidates: req.Candidates,
		Trials:     req.Trials,
		Seed:       req.Seed,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{Recommendation: rec, Ranking: types.Ranking(rec)})
}

// HandleSimulate handles POST /simulate requests.
func (h *EngineHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req types.SimulateRequest
	if err := decodeJSON(op, r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	end, err := h.deps.Simulate(r.Context(), req)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{
		Meters:   end.Meters,
		Turnover: end.Turnover,
		Phase:    end.Phase,
		Zone:     end.Zone.Key,
		Steps:    end.Steps,
	})
}
