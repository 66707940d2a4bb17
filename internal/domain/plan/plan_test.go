package plan_test

import (
	"errors"
	"testing"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/outcome"
	"github.com/okian/rugbysim/internal/domain/plan"
	"github.com/okian/rugbysim/internal/domain/rng"
	. "github.com/smartystreets/goconvey/convey"
)

// scripted returns fixed outcomes and records the contexts it saw.
type scripted struct {
	outcomes []model.TrialOutcome
	seen     []model.Context
}

func (s *scripted) Execute(_ catalog.Play, ctx model.Context, _ rng.Source) model.TrialOutcome {
	s.seen = append(s.seen, ctx)
	out := s.outcomes[0]
	s.outcomes = s.outcomes[1:]
	return out
}

func startState(reg *catalog.Registry) model.State {
	ctx, err := model.NewContext(reg, model.Selection{
		Zone: "opp_half", Defense: "drift", Ruck: "quick", Source: "lineout",
		Level: "club", Carrier: "power_12",
	})
	So(err, ShouldBeNil)
	return model.NewState(ctx)
}

func TestSimulate(t *testing.T) {
	Convey("Given a simulator over a scripted executor", t, func() {
		reg, _ := catalog.Default()
		exec := &scripted{outcomes: []model.TrialOutcome{
			{Gain: 30},
			{Gain: 25},
			{Gain: 4, Turnover: true, ExecutionTurnover: true},
			{Gain: 99},
		}}
		sim, err := plan.New(reg, exec)
		So(err, ShouldBeNil)
		start := startState(reg)

		Convey("When a four-play plan turns over on the third play", func() {
			// ruck draws: quick, normal, slow
			src := rng.NewSequence(0.7, 0.3, 0.1)
			end, err := sim.Simulate(start, []string{"power_pod", "Tip On", "screen_play", "edge_sweep"}, src)

			Convey("Then the fourth play never runs", func() {
				So(err, ShouldBeNil)
				So(len(exec.seen), ShouldEqual, 3)
				So(len(end.Steps), ShouldEqual, 3)
				So(end.Turnover, ShouldBeTrue)
				So(end.Meters, ShouldEqual, 59)
			})

			Convey("Then phase, zone and ruck evolve between plays", func() {
				So(exec.seen[0].Phase, ShouldEqual, 1)
				So(exec.seen[1].Phase, ShouldEqual, 2)
				So(exec.seen[2].Phase, ShouldEqual, 3)
				So(exec.seen[1].Zone.Key, ShouldEqual, catalog.ZoneOppHalf)
				So(exec.seen[2].Zone.Key, ShouldEqual, catalog.ZoneRedZone)
				So(exec.seen[1].Ruck.Key, ShouldEqual, catalog.RuckQuick)
				So(exec.seen[2].Ruck.Key, ShouldEqual, catalog.RuckNormal)
				So(end.Ruck.Key, ShouldEqual, catalog.RuckSlow)
				So(end.Steps[1].Play, ShouldEqual, "tip_on")
				So(end.Steps[1].Meters, ShouldEqual, 55)
			})

			Convey("Then the starting state is untouched", func() {
				So(start.Meters, ShouldEqual, 0)
				So(start.Steps, ShouldBeEmpty)
				So(start.Phase, ShouldEqual, 1)
			})
		})

		Convey("When the plan names an unknown play", func() {
			end, err := sim.Simulate(start, []string{"power_pod", "garryowen"}, rng.NewSequence(0.5))

			Convey("Then nothing runs and UnknownCatalogKey is returned", func() {
				So(errors.Is(err, catalog.ErrUnknownCatalogKey), ShouldBeTrue)
				So(exec.seen, ShouldBeEmpty)
				So(end.Meters, ShouldEqual, 0)
			})
		})

		Convey("When the state already has a turnover", func() {
			start.Turnover = true
			end, err := sim.Simulate(start, []string{"power_pod"}, rng.NewSequence(0.5))

			Convey("Then no play is executed", func() {
				So(err, ShouldBeNil)
				So(exec.seen, ShouldBeEmpty)
				So(end.Steps, ShouldBeEmpty)
			})
		})
	})
}

func TestStepDoesNotAlias(t *testing.T) {
	Convey("Given a state with spare step capacity", t, func() {
		reg, _ := catalog.Default()
		sim, _ := plan.New(reg, outcome.New())
		base := startState(reg)
		base.Steps = make([]model.Step, 0, 8)
		pod, _ := reg.Play("power_pod")

		Convey("When two branches step from the same state", func() {
			a := sim.Step(base, pod, rng.New(1))
			b := sim.Step(base, pod, rng.New(2))

			Convey("Then each branch keeps its own step", func() {
				So(a.Steps[0].Outcome, ShouldNotResemble, b.Steps[0].Outcome)
				So(len(base.Steps), ShouldEqual, 0)
			})
		})
	})
}
