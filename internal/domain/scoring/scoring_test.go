package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/montecarlo"
	"github.com/okian/rugbysim/internal/domain/outcome"
	"github.com/okian/rugbysim/internal/domain/plan"
	scoring "github.com/okian/rugbysim/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedAggregator returns canned results and can cancel after n calls.
type fixedAggregator struct {
	results     map[string]model.AggregateResult
	calls       []string
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fixedAggregator) Aggregate(_ context.Context, play string, _ model.Factory, trials int) (model.AggregateResult, error) {
	f.calls = append(f.calls, play)
	if f.cancel != nil && len(f.calls) == f.cancelAfter {
		f.cancel()
	}
	if trials <= 0 {
		return model.AggregateResult{}, montecarlo.ErrInvalidTrialCount
	}
	res, ok := f.results[play]
	if !ok {
		return model.AggregateResult{}, &catalog.UnknownKeyError{Kind: catalog.KindPlay, Key: play}
	}
	res.Play = play
	return res, nil
}

func canned() *fixedAggregator {
	return &fixedAggregator{results: map[string]model.AggregateResult{
		"a": {MeanGain: 5, TurnoverRatePercent: 20}, // 2.0
		"b": {MeanGain: 4, TurnoverRatePercent: 10}, // 2.5
		"c": {MeanGain: 3, TurnoverRatePercent: 0},  // 3.0
		"d": {MeanGain: 4, TurnoverRatePercent: 10}, // 2.5, ties with b
	}}
}

func noState() model.State { return model.State{} }

func TestRecommend(t *testing.T) {
	Convey("Given a recommender over canned aggregates", t, func() {
		agg := canned()
		rec := scoring.NewRecommender(agg)

		Convey("When ranking several candidates", func() {
			got, err := rec.Recommend(context.Background(), noState, []string{"a", "d", "b", "c"}, 100)

			Convey("Then they are sorted by score and ties keep input order", func() {
				So(err, ShouldBeNil)
				So(got.Best.Play, ShouldEqual, "c")
				order := []string{}
				for _, r := range got.Ranked {
					order = append(order, r.Play)
				}
				So(order, ShouldResemble, []string{"c", "d", "b", "a"})
				So(got.Ranked[1].Score, ShouldAlmostEqual, 2.5, 1e-12)
				So(got.RiskWeight, ShouldEqual, scoring.DefaultRiskWeight)
				So(got.Trials, ShouldEqual, 100)
			})
		})

		Convey("When only one candidate is given", func() {
			got, err := rec.Recommend(context.Background(), noState, []string{"a"}, 10)

			Convey("Then it is recommended regardless of score", func() {
				So(err, ShouldBeNil)
				So(got.Best.Play, ShouldEqual, "a")
				So(len(got.Ranked), ShouldEqual, 1)
			})
		})

		Convey("When no candidates are given", func() {
			_, err := rec.Recommend(context.Background(), noState, nil, 10)

			Convey("Then ErrEmptyCandidateSet is returned", func() {
				So(errors.Is(err, scoring.ErrEmptyCandidateSet), ShouldBeTrue)
				So(agg.calls, ShouldBeEmpty)
			})
		})

		Convey("When a candidate is unknown", func() {
			_, err := rec.Recommend(context.Background(), noState, []string{"a", "zz"}, 10)

			Convey("Then the catalog error surfaces", func() {
				So(errors.Is(err, catalog.ErrUnknownCatalogKey), ShouldBeTrue)
			})
		})

		Convey("When the trial count is invalid", func() {
			_, err := rec.Recommend(context.Background(), noState, []string{"a"}, 0)
			So(errors.Is(err, montecarlo.ErrInvalidTrialCount), ShouldBeTrue)
		})

		Convey("When the scan is cancelled after the first candidate", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			agg.cancel, agg.cancelAfter = cancel, 1
			got, err := rec.Recommend(ctx, noState, []string{"a", "b", "c"}, 10)

			Convey("Then the scan is incomplete and carries no recommendation", func() {
				So(errors.Is(err, scoring.ErrIncomplete), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(got.Ranked, ShouldBeNil)
				So(got.Best.Play, ShouldEqual, "")
				So(agg.calls, ShouldResemble, []string{"a"})
			})
		})

		Convey("When the risk weight is raised", func() {
			heavy := scoring.NewRecommender(agg, scoring.WithRiskWeight(0.3))

			Convey("Then the score penalises turnovers harder", func() {
				So(heavy.Score(model.AggregateResult{MeanGain: 5, TurnoverRatePercent: 20}), ShouldAlmostEqual, -1, 1e-12)
				So(heavy.RiskWeight(), ShouldEqual, 0.3)
			})
		})

		Convey("When an invalid risk weight is passed", func() {
			r := scoring.NewRecommender(agg, scoring.WithRiskWeight(-1))
			So(r.RiskWeight(), ShouldEqual, scoring.DefaultRiskWeight)
		})
	})
}

func TestRecommendEndToEnd(t *testing.T) {
	Convey("Given a red zone scenario against a blitz", t, func() {
		reg, err := catalog.Default()
		So(err, ShouldBeNil)
		sim, err := plan.New(reg, outcome.New())
		So(err, ShouldBeNil)
		ctx, err := model.NewContext(reg, model.Selection{
			Zone: "Red Zone", Defense: "Blitz", Ruck: "normal", Source: "Open Play",
			Level: "Senior", Carrier: "Playmaker 10",
		})
		So(err, ShouldBeNil)

		run := func() model.Recommendation {
			agg := montecarlo.New(sim, montecarlo.WithSeed(2024))
			rec, err := scoring.NewRecommender(agg).Recommend(context.Background(),
				model.FactoryFor(ctx), []string{"Power Pod", "Out The Back"}, 1000)
			So(err, ShouldBeNil)
			return rec
		}

		Convey("When the scan is run twice with the same seed", func() {
			first, second := run(), run()

			Convey("Then the result is reproducible bit for bit", func() {
				So(second, ShouldResemble, first)
			})

			Convey("Then the low risk pod beats the wide shape", func() {
				So(first.Best.Play, ShouldEqual, "power_pod")
				So(first.Ranked[1].Play, ShouldEqual, "out_the_back")
				So(first.Ranked[1].TurnoverRatePercent, ShouldBeGreaterThan, first.Best.TurnoverRatePercent)
				So(first.Ranked[1].MatchupTurnovers, ShouldBeGreaterThan, 0)
				So(first.Best.MatchupTurnovers, ShouldEqual, 0)
			})
		})
	})
}
