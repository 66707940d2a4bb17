package model_test

import (
	"errors"
	"testing"

	"github.com/okian/rugbysim/internal/domain/catalog"
	model "github.com/okian/rugbysim/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func baseSelection() model.Selection {
	return model.Selection{
		Zone:    "Red Zone",
		Defense: "blitz",
		Ruck:    "normal",
		Source:  "open_play",
		Level:   "Senior",
		Carrier: "playmaker_10",
	}
}

func TestNewContext(t *testing.T) {
	convey.Convey("Given the default catalog", t, func() {
		reg, err := catalog.Default()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When resolving a valid selection without a phase", func() {
			ctx, err := model.NewContext(reg, baseSelection())

			convey.Convey("Then every entry is resolved and phase defaults to 1", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ctx.Zone.Key, convey.ShouldEqual, catalog.ZoneRedZone)
				convey.So(ctx.Defense.Key, convey.ShouldEqual, "blitz")
				convey.So(ctx.Level.Key, convey.ShouldEqual, "senior")
				convey.So(ctx.Carrier.DecisionBonus, convey.ShouldEqual, 1.3)
				convey.So(ctx.Phase, convey.ShouldEqual, 1)
				convey.So(ctx.Describe(), convey.ShouldContainSubstring, "Red Zone vs Blitz")
			})
		})

		convey.Convey("When a selection names an unknown level", func() {
			sel := baseSelection()
			sel.Level = "pro14"
			_, err := model.NewContext(reg, sel)

			convey.Convey("Then UnknownCatalogKey is returned", func() {
				convey.So(errors.Is(err, catalog.ErrUnknownCatalogKey), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "pro14")
			})
		})

		convey.Convey("When a selection omits the defense", func() {
			sel := baseSelection()
			sel.Defense = ""
			_, err := model.NewContext(reg, sel)

			convey.Convey("Then it is treated as unknown", func() {
				convey.So(errors.Is(err, catalog.ErrUnknownCatalogKey), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the phase is negative", func() {
			sel := baseSelection()
			sel.Phase = -2
			_, err := model.NewContext(reg, sel)

			convey.Convey("Then ErrInvalidPhase is returned", func() {
				convey.So(errors.Is(err, model.ErrInvalidPhase), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a carry bonus override is supplied", func() {
			v := 1.45
			sel := baseSelection()
			sel.CarryBonus = &v
			sel.Phase = 3
			ctx, err := model.NewContext(reg, sel)

			convey.Convey("Then the context uses a modified copy", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ctx.Carrier.CarryBonus, convey.ShouldEqual, 1.45)
				convey.So(ctx.Phase, convey.ShouldEqual, 3)
				orig, _ := reg.Archetype("playmaker_10")
				convey.So(orig.CarryBonus, convey.ShouldEqual, 0.9)
			})
		})

		convey.Convey("When the override is out of range", func() {
			v := 2.0
			sel := baseSelection()
			sel.CarryBonus = &v
			_, err := model.NewContext(reg, sel)

			convey.Convey("Then ErrInvalidOverride is returned", func() {
				convey.So(errors.Is(err, model.ErrInvalidOverride), convey.ShouldBeTrue)
			})
		})
	})
}

func TestStateFactory(t *testing.T) {
	convey.Convey("Given a factory for a context", t, func() {
		reg, _ := catalog.Default()
		ctx, _ := model.NewContext(reg, baseSelection())
		factory := model.FactoryFor(ctx)

		convey.Convey("When one produced state is modified", func() {
			first := factory()
			first.Meters = 30
			first.Steps = append(first.Steps, model.Step{Play: "power_pod"})
			second := factory()

			convey.Convey("Then the next state starts clean", func() {
				convey.So(second.Meters, convey.ShouldEqual, 0)
				convey.So(second.Steps, convey.ShouldBeEmpty)
				convey.So(second.Turnover, convey.ShouldBeFalse)
				convey.So(second.Context, convey.ShouldResemble, ctx)
			})
		})
	})
}

func TestScanFinished(t *testing.T) {
	convey.Convey("Given scans in each status", t, func() {
		for status, want := range map[string]bool{
			model.ScanQueued:     false,
			model.ScanRunning:    false,
			model.ScanDone:       true,
			model.ScanIncomplete: true,
			model.ScanFailed:     true,
		} {
			convey.So(model.Scan{Status: status}.Finished(), convey.ShouldEqual, want)
		}
	})
}
