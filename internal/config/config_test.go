package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/rugbysim/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DefaultTrials, convey.ShouldEqual, 1000)
			convey.So(cfg.RiskWeight, convey.ShouldEqual, 0.15)
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.ScanTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.StorePath, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero queue":          func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":        func(c *config.Config) { c.WorkerCount = 0 },
			"zero dedupe":         func(c *config.Config) { c.DedupeSize = 0 },
			"zero default trials": func(c *config.Config) { c.DefaultTrials = 0 },
			"max below default":   func(c *config.Config) { c.MaxTrials = c.DefaultTrials - 1 },
			"negative risk":       func(c *config.Config) { c.RiskWeight = -0.1 },
			"zero trial workers":  func(c *config.Config) { c.TrialWorkers = 0 },
			"negative timeout":    func(c *config.Config) { c.ScanTimeoutMS = -1 },
			"zero shutdown grace": func(c *config.Config) { c.ShutdownGraceMS = 0 },
			"unknown log level":   func(c *config.Config) { c.LogLevel = "chatty" },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a zero scan timeout", t, func() {
		cfg := config.New()
		cfg.ScanTimeoutMS = 0
		convey.So(cfg.Validate(), convey.ShouldBeNil)
		convey.So(cfg.ScanTimeout(), convey.ShouldEqual, time.Duration(0))
	})
}
