package rng_test

import (
	"testing"

	"github.com/okian/rugbysim/internal/domain/rng"
	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given two sources with the same seed", t, func() {
		a, b := rng.New(42), rng.New(42)

		convey.Convey("Then they produce the same stream", func() {
			for i := 0; i < 10; i++ {
				convey.So(a.Float64(), convey.ShouldEqual, b.Float64())
			}
		})
	})

	convey.Convey("Given seed zero", t, func() {
		zero, one := rng.New(0), rng.New(1)

		convey.Convey("Then it behaves like seed one", func() {
			convey.So(zero.Float64(), convey.ShouldEqual, one.Float64())
		})
	})
}

func TestTrialSeed(t *testing.T) {
	convey.Convey("Given a run seed", t, func() {
		convey.So(rng.TrialSeed(10, 0), convey.ShouldEqual, 10)
		convey.So(rng.TrialSeed(10, 3), convey.ShouldEqual, 10+3*rng.TrialStride)
	})
}

func TestUniform(t *testing.T) {
	convey.Convey("Given scripted draws at the bounds", t, func() {
		src := rng.NewSequence(0, 0.5, 0.999)

		convey.So(rng.Uniform(src, 0.8, 1.2), convey.ShouldEqual, 0.8)
		convey.So(rng.Uniform(src, 0.8, 1.2), convey.ShouldAlmostEqual, 1.0, 1e-12)
		convey.So(rng.Uniform(src, 0.8, 1.2), convey.ShouldBeLessThan, 1.2)
	})
}

func TestSequence(t *testing.T) {
	convey.Convey("Given a scripted sequence", t, func() {
		s := rng.NewSequence(0.1, 0.2)

		convey.Convey("When drawing past the end", func() {
			got := []float64{s.Float64(), s.Float64(), s.Float64()}

			convey.Convey("Then it wraps and counts draws", func() {
				convey.So(got, convey.ShouldResemble, []float64{0.1, 0.2, 0.1})
				convey.So(s.Used(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When built empty", func() {
			convey.So(func() { rng.NewSequence() }, convey.ShouldPanic)
		})
	})
}
