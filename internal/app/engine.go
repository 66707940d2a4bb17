package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/montecarlo"
	"github.com/okian/rugbysim/internal/domain/review"
	"github.com/okian/rugbysim/internal/domain/rng"
	"github.com/okian/rugbysim/internal/domain/scoring"
	"github.com/okian/rugbysim/internal/domain/tree"
	"github.com/okian/rugbysim/internal/domain/types"
	"github.com/okian/rugbysim/pkg/logger"
	"github.com/okian/rugbysim/pkg/metrics"
)

// instrumented records engine metrics around an aggregator.
type instrumented struct {
	agg *montecarlo.Aggregator
}

func (i instrumented) Aggregate(ctx context.Context, play string, factory model.Factory, trials int) (model.AggregateResult, error) {
	start := time.Now()
	res, err := i.agg.Aggregate(ctx, play, factory, trials)
	if err != nil {
		metrics.RecordErrorByComponent("engine", errorType(err))
		return res, err
	}
	metrics.RecordAggregateLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordTrials(res.Trials)
	metrics.RecordTurnovers("matchup", res.MatchupTurnovers)
	metrics.RecordTurnovers("execution", res.ExecutionTurnovers)
	metrics.RecordSaturated(res.SaturatedTrials)
	return res, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, catalog.ErrUnknownCatalogKey):
		return "unknown_catalog_key"
	case errors.Is(err, montecarlo.ErrInvalidTrialCount):
		return "invalid_trial_count"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// aggregator builds a per-request aggregator. A zero seed means the
// configured seed.
func (s *Service) aggregator(seed int64) instrumented {
	return instrumented{agg: montecarlo.New(s.sim,
		montecarlo.WithSeed(s.seedOr(seed)),
		montecarlo.WithWorkers(s.trialWorkers),
	)}
}

func (s *Service) seedOr(seed int64) int64 {
	if seed == 0 {
		return s.seed
	}
	return seed
}

// trials applies the default to an unset count and the configured cap.
// Negative counts are left for the aggregator to reject.
func (s *Service) trials(n int) (int, error) {
	switch {
	case n == 0:
		return s.defaultTrials, nil
	case n > s.maxTrials:
		return 0, fmt.Errorf("%w: %d exceeds limit %d", montecarlo.ErrInvalidTrialCount, n, s.maxTrials)
	}
	return n, nil
}

// Aggregate runs trials of one play over the scenario.
func (s *Service) Aggregate(ctx context.Context, req types.AggregateRequest) (model.AggregateResult, error) {
	c, err := model.NewContext(s.catalog, req.Scenario)
	if err != nil {
		return model.AggregateResult{}, err
	}
	trials, err := s.trials(req.Trials)
	if err != nil {
		return model.AggregateResult{}, err
	}
	return s.aggregator(req.Seed).Aggregate(ctx, req.Play, model.FactoryFor(c), trials)
}

// Recommend ranks candidates over the scenario synchronously.
func (s *Service) Recommend(ctx context.Context, req model.ScanRequest) (model.Recommendation, error) { //nolint:gocritic // hugeParam: request is a value type across the API
	c, err := model.NewContext(s.catalog, req.Selection)
	if err != nil {
		return model.Recommendation{}, err
	}
	trials, err := s.trials(req.Trials)
	if err != nil {
		return model.Recommendation{}, err
	}
	rec, err := scoring.NewRecommender(s.aggregator(req.Seed), scoring.WithRiskWeight(s.riskWeight)).
		Recommend(ctx, model.FactoryFor(c), req.Candidates, trials)
	if err != nil {
		return model.Recommendation{}, err
	}
	metrics.RecordRecommendation(rec.Best.Play)
	s.logger.Debug(ctx, "recommendation computed",
		logger.String("scenario", c.Describe()),
		logger.String("best", rec.Best.Play),
		logger.Float64("score", rec.Best.Score),
		logger.Int("trials", trials),
	)
	return rec, nil
}

// RunScan implements worker.Runner.
func (s *Service) RunScan(ctx context.Context, req model.ScanRequest) (model.Recommendation, error) { //nolint:gocritic // hugeParam: request is a value type across the API
	return s.Recommend(ctx, req)
}

// Simulate executes the plan once with a source seeded from req.Seed.
func (s *Service) Simulate(ctx context.Context, req types.SimulateRequest) (model.State, error) {
	c, err := model.NewContext(s.catalog, req.Scenario)
	if err != nil {
		return model.State{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.State{}, err
	}
	end, err := s.sim.Simulate(model.NewState(c), req.Plays, rng.New(s.seedOr(req.Seed)))
	if err != nil {
		return model.State{}, err
	}
	metrics.RecordTrials(1)
	return end, nil
}

// Tree returns the decision tree graph.
func (s *Service) Tree() catalog.DecisionTree {
	return s.catalog.Snapshot().DecisionTree
}

// Advance moves from node on an observed reaction label. An empty node
// means the start node.
func (s *Service) Advance(node, label string) (types.TreeStep, error) {
	if node == "" {
		node = s.navigator.Start().Key
	}
	next, err := s.navigator.Advance(node, label)
	if err != nil {
		if errors.Is(err, tree.ErrUnknownTrigger) {
			metrics.RecordTreeAdvance("unknown_trigger")
		} else {
			metrics.RecordTreeAdvance("unknown_node")
		}
		return types.TreeStep{}, err
	}
	n, err := s.navigator.Node(next)
	if err != nil {
		return types.TreeStep{}, err
	}
	p, err := s.catalog.Play(n.Play)
	if err != nil {
		return types.TreeStep{}, err
	}
	metrics.RecordTreeAdvance("ok")
	return types.TreeStep{From: node, Node: n, Play: p}, nil
}

// Review classifies a logged call.
func (s *Service) Review(call review.LoggedCall) (review.Verdict, error) {
	v, err := s.reviewer.Review(call)
	if err != nil {
		return review.Verdict{}, err
	}
	metrics.RecordReview(v.Classification)
	return v, nil
}
