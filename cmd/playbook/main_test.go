package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestScenarioFrom(t *testing.T) {
	convey.Convey("Given scenario flags", t, func() {
		convey.Convey("When none are set", func() {
			sel, err := scenarioFrom(model.Selection{Phase: 1})
			convey.So(err, convey.ShouldBeNil)
			convey.So(sel, convey.ShouldBeNil)
		})

		convey.Convey("When all are set", func() {
			in := model.Selection{Zone: "red_zone", Defense: "blitz", Ruck: "quick", Source: "scrum", Level: "club", Carrier: "power_12", Phase: 3}
			sel, err := scenarioFrom(in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(*sel, convey.ShouldResemble, in)
		})

		convey.Convey("When only some are set", func() {
			_, err := scenarioFrom(model.Selection{Zone: "red_zone"})
			convey.So(errors.Is(err, errPartialScenario), convey.ShouldBeTrue)
		})
	})
}

func TestSplitPlays(t *testing.T) {
	convey.Convey("Given a play list flag", t, func() {
		convey.So(splitPlays(""), convey.ShouldBeEmpty)
		convey.So(splitPlays(" power_pod, ,edge_sweep "), convey.ShouldResemble, []string{"power_pod", "edge_sweep"})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given the playbook command", t, func() {
		var stdout, stderr bytes.Buffer

		convey.Convey("When asked for help", func() {
			convey.So(run([]string{"-help"}, &stdout, &stderr), convey.ShouldEqual, 0)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "Usage:")
		})

		convey.Convey("When a scenario is partial", func() {
			convey.So(run([]string{"-zone", "red_zone"}, &stdout, &stderr), convey.ShouldEqual, 2)
		})

		convey.Convey("When a fixed scenario runs in-process", func() {
			code := run([]string{
				"-zone", "red_zone", "-defense", "blitz", "-ruck", "quick", "-source", "lineout",
				"-level", "club", "-carrier", "power_12", "-plays", "power_pod,edge_sweep", "-trials", "100",
			}, &stdout, &stderr)

			convey.Convey("Then the report is printed", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Recommended play:")
				convey.So(stdout.String(), convey.ShouldContainSubstring, "Red Zone")
			})
		})
	})
}

func TestStartLocal(t *testing.T) {
	convey.Convey("Given RUGBYSIM settings for the local server", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		defer func() {
			_ = os.Unsetenv("RUGBYSIM_STORE_PATH")
			_ = os.Unsetenv("RUGBYSIM_CATALOG_PATH")
		}()

		convey.Convey("When a store path is set", func() {
			path := filepath.Join(dir, "local.db")
			_ = os.Setenv("RUGBYSIM_STORE_PATH", path)
			local, err := startLocal(ctx, 7)
			convey.So(err, convey.ShouldBeNil)
			local.Close()

			convey.Convey("Then the local service keeps scans in that file", func() {
				_, err := os.Stat(path)
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the catalog path does not exist", func() {
			_ = os.Setenv("RUGBYSIM_CATALOG_PATH", filepath.Join(dir, "missing.yaml"))
			local, err := startLocal(ctx, 7)

			convey.Convey("Then the local server does not start", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(local, convey.ShouldBeNil)
			})
		})
	})
}
