// Package scoring ranks candidate plays for a fixed scenario by a utility
// score that trades expected gain against turnover rate.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/rugbysim/internal/domain/model"
)

// DefaultRiskWeight is the penalty per percentage point of turnover rate.
const DefaultRiskWeight = 0.15

// Option applies a configuration option to the Recommender.
type Option func(*Recommender)

// WithRiskWeight sets the turnover penalty. Negative or non-finite values
// are ignored.
func WithRiskWeight(w float64) Option {
	return func(r *Recommender) {
		if w >= 0 && !math.IsInf(w, 0) {
			r.riskWeight = w
		}
	}
}

// Aggregator summarises trials of one play.
type Aggregator interface {
	Aggregate(ctx context.Context, play string, factory model.Factory, trials int) (model.AggregateResult, error)
}

// Recommender runs an Aggregator over candidate plays and ranks them.
type Recommender struct {
	agg        Aggregator
	riskWeight float64
}

// NewRecommender creates a recommender with configuration options.
func NewRecommender(agg Aggregator, opts ...Option) *Recommender {
	r := &Recommender{
		agg:        agg,
		riskWeight: DefaultRiskWeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RiskWeight returns the configured turnover penalty.
func (r *Recommender) RiskWeight() float64 { return r.riskWeight }

// Score is the utility of an aggregate result.
func (r *Recommender) Score(res model.AggregateResult) float64 {
	return res.MeanGain - r.riskWeight*res.TurnoverRatePercent
}

// Recommend aggregates every candidate over fresh states from factory and
// ranks them by score, highest first. Ties keep candidate order.
//
// Cancellation is honoured between candidates. A cancelled scan returns an
// error wrapping ErrIncomplete and no recommendation.
func (r *Recommender) Recommend(ctx context.Context, factory model.Factory, candidates []string, trials int) (model.Recommendation, error) {
	if len(candidates) == 0 {
		return model.Recommendation{}, ErrEmptyCandidateSet
	}

	ranked := make([]model.AggregateResult, 0, len(candidates))
	for _, play := range candidates {
		if err := ctx.Err(); err != nil {
			return model.Recommendation{}, fmt.Errorf("%w: %w", ErrIncomplete, err)
		}
		res, err := r.agg.Aggregate(ctx, play, factory, trials)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.Recommendation{}, fmt.Errorf("%w: %w", ErrIncomplete, ctxErr)
			}
			return model.Recommendation{}, fmt.Errorf("candidate %q: %w", play, err)
		}
		res.Score = r.Score(res)
		ranked = append(ranked, res)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return model.Recommendation{
		Best:       ranked[0],
		Ranked:     ranked,
		RiskWeight: r.riskWeight,
		Trials:     trials,
	}, nil
}
