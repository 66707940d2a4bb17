package scanclient_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/rugbysim/internal/adapters/http/api"
	service "github.com/okian/rugbysim/internal/app"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/scanclient"
	"github.com/okian/rugbysim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var redZone = model.Selection{
	Zone: "red_zone", Defense: "blitz", Ruck: "normal", Source: "open_play",
	Level: "senior", Carrier: "playmaker_10",
}

func startServer() (*httptest.Server, func()) {
	svc, err := service.New(service.WithWorkerCount(2), service.WithTrials(100, 5000), service.WithSeed(7))
	So(err, ShouldBeNil)
	So(svc.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		svc.Stop()
	}
}

func defaultData() catalog.Data {
	reg, err := catalog.Default()
	So(err, ShouldBeNil)
	return reg.Snapshot()
}

func TestGenerate(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		data := defaultData()

		Convey("When generating twice with one seed", func() {
			a, err := scanclient.Generate(data, 5, 11, 100)
			So(err, ShouldBeNil)
			b, err := scanclient.Generate(data, 5, 11, 100)
			So(err, ShouldBeNil)

			Convey("Then scenarios and candidates repeat but ids do not", func() {
				for i := range a {
					So(a[i].Selection, ShouldResemble, b[i].Selection)
					So(a[i].Candidates, ShouldResemble, b[i].Candidates)
					So(a[i].ID, ShouldNotEqual, b[i].ID)
					So(a[i].Trials, ShouldEqual, 100)
					So(len(a[i].Candidates), ShouldBeBetweenOrEqual, 2, 4)
					So(a[i].Selection.Phase, ShouldBeGreaterThanOrEqualTo, 1)
				}
			})
		})

		Convey("When asking for no scans", func() {
			_, err := scanclient.Generate(data, 0, 1, 0)
			So(errors.Is(err, scanclient.ErrNoScans), ShouldBeTrue)
		})

		Convey("When the catalog has a single play", func() {
			data.Plays = data.Plays[:1]
			_, err := scanclient.Generate(data, 1, 1, 0)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a fixed scenario", t, func() {
		reqs, err := scanclient.Fixed(redZone, []string{"power_pod", "edge_sweep"}, 3, 40, 0)

		Convey("Then each request shares it with its own seed", func() {
			So(err, ShouldBeNil)
			So(len(reqs), ShouldEqual, 3)
			So(reqs[2].Seed, ShouldEqual, 42)
			So(reqs[1].Selection, ShouldResemble, redZone)
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given finished scans", t, func() {
		req := model.ScanRequest{ID: "s", Candidates: []string{"a", "b"}}
		ranked := []model.AggregateResult{{Play: "a", Score: 3, Trials: 10}, {Play: "b", Score: 1, Trials: 10}}
		done := model.Scan{ID: "s", Status: model.ScanDone, Request: req,
			Recommendation: &model.Recommendation{Best: ranked[0], Ranked: ranked, Trials: 10}}

		Convey("When the ranking is coherent", func() {
			So(scanclient.Verify(done), ShouldBeNil)
		})

		Convey("When the ranking is out of order", func() {
			bad := done
			bad.Recommendation = &model.Recommendation{
				Best:   ranked[1],
				Ranked: []model.AggregateResult{ranked[1], ranked[0]},
				Trials: 10,
			}
			So(errors.Is(scanclient.Verify(bad), scanclient.ErrInconsistent), ShouldBeTrue)
		})

		Convey("When a done scan lacks a recommendation", func() {
			bad := done
			bad.Recommendation = nil
			So(errors.Is(scanclient.Verify(bad), scanclient.ErrInconsistent), ShouldBeTrue)
		})

		Convey("When an incomplete scan carries a recommendation", func() {
			bad := done
			bad.Status = model.ScanIncomplete
			So(errors.Is(scanclient.Verify(bad), scanclient.ErrInconsistent), ShouldBeTrue)
		})

		Convey("When a failed scan has only an error", func() {
			So(scanclient.Verify(model.Scan{ID: "f", Status: model.ScanFailed, Error: "boom"}), ShouldBeNil)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv, stop := startServer()
		defer stop()
		ctx := context.Background()
		client := scanclient.NewClient(srv.URL+"/", time.Second)

		Convey("When checking health and the catalog", func() {
			So(client.Health(ctx), ShouldBeNil)
			data, err := client.Catalog(ctx)
			So(err, ShouldBeNil)
			So(len(data.Plays), ShouldEqual, len(defaultData().Plays))
		})

		Convey("When a scan is submitted and awaited", func() {
			ack, err := client.Submit(ctx, model.ScanRequest{ID: "c1", Selection: redZone, Candidates: []string{"power_pod", "edge_sweep"}})
			So(err, ShouldBeNil)
			So(ack.Duplicate, ShouldBeFalse)
			scan, err := client.Wait(ctx, "c1", 5*time.Millisecond)

			Convey("Then it is done and has a report", func() {
				So(err, ShouldBeNil)
				So(scan.Status, ShouldEqual, model.ScanDone)
				So(scanclient.Verify(scan), ShouldBeNil)
				text, err := client.Report(ctx, "c1")
				So(err, ShouldBeNil)
				So(text, ShouldContainSubstring, "Recommended play:")
			})
		})

		Convey("When a request is invalid", func() {
			_, err := client.Submit(ctx, model.ScanRequest{Selection: redZone})
			var apiErr *scanclient.APIError

			Convey("Then the API error is decoded", func() {
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusBadRequest)
				So(apiErr.Code, ShouldEqual, "empty_candidate_set")
			})
		})

		Convey("When a scan is unknown", func() {
			_, err := client.Scan(ctx, "nope")
			var apiErr *scanclient.APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Code, ShouldEqual, "not_found")
		})
	})

	Convey("Given nothing listening", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		err := scanclient.NewClient(url, 100*time.Millisecond).Health(context.Background())
		So(errors.Is(err, scanclient.ErrUnhealthy), ShouldBeTrue)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv, stop := startServer()
		defer stop()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When running generated scans", func() {
			var out bytes.Buffer
			stats, err := scanclient.Run(ctx, &scanclient.Config{BaseURL: srv.URL, Scans: 4, Workers: 2, Trials: 50, Seed: 3}, &out)

			Convey("Then every scan is done, verified and reported", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 4)
				So(stats.Accepted, ShouldEqual, 4)
				So(stats.Done, ShouldEqual, 4)
				So(stats.Verified, ShouldEqual, 4)
				So(bytes.Count(out.Bytes(), []byte("Recommended play:")), ShouldEqual, 4)
			})
		})

		Convey("When running a fixed scenario over the whole catalog", func() {
			var out bytes.Buffer
			sel := redZone
			stats, err := scanclient.Run(ctx, &scanclient.Config{BaseURL: srv.URL, Scenario: &sel, Trials: 50}, &out)

			Convey("Then one report ranks every play", func() {
				So(err, ShouldBeNil)
				So(stats.Done, ShouldEqual, 1)
				So(out.String(), ShouldContainSubstring, "Red Zone")
			})
		})

		Convey("When every scan is invalid", func() {
			sel := redZone
			sel.Zone = "halfway"
			_, err := scanclient.Run(ctx, &scanclient.Config{BaseURL: srv.URL, Scenario: &sel, Candidates: []string{"power_pod"}}, &bytes.Buffer{})
			So(err, ShouldNotBeNil)
		})
	})
}
