package report_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func doneScan() model.Scan {
	pod := model.AggregateResult{Play: "power_pod", Name: "Power Pod", Trials: 1000, MeanGain: 1.98, GainStdDev: 0.23, MaxGain: 2.38, TurnoverRatePercent: 11.7, ExecutionTurnovers: 117, Score: 0.225}
	otb := model.AggregateResult{Play: "out_the_back", Name: "Out The Back", Trials: 1000, MeanGain: 2.97, TurnoverRatePercent: 57.6, MatchupTurnovers: 401, Score: -5.67}
	return model.Scan{
		ID:       "scan-1",
		Status:   model.ScanDone,
		Scenario: "Red Zone vs Blitz",
		Recommendation: &model.Recommendation{
			Best: pod, Ranked: []model.AggregateResult{pod, otb}, RiskWeight: 0.15, Trials: 1000,
		},
	}
}

func TestWrite(t *testing.T) {
	Convey("Given a finished scan", t, func() {
		reg, _ := catalog.Default()
		var buf bytes.Buffer

		Convey("When rendering it", func() {
			err := report.Write(&buf, doneScan(), reg)
			out := buf.String()

			Convey("Then every labelled field is present", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Scan:        scan-1")
				So(out, ShouldContainSubstring, "Scenario:    Red Zone vs Blitz")
				So(out, ShouldContainSubstring, "Recommended play: Power Pod (power_pod)")
				So(out, ShouldContainSubstring, "Mean gain:      1.98 m")
				So(out, ShouldContainSubstring, "Turnover rate:  11.70 %")
				So(out, ShouldContainSubstring, "Risk weight: 0.15")
			})

			Convey("Then the ranked table lists every candidate in order", func() {
				So(out, ShouldContainSubstring, "Turnover %")
				So(out, ShouldContainSubstring, "Out The Back")
				So(out, ShouldContainSubstring, "57.60")
				So(bytes.Index(buf.Bytes(), []byte("| Power Pod")), ShouldBeLessThan, bytes.Index(buf.Bytes(), []byte("| Out The Back")))
			})

			Convey("Then the drill and KPIs of the recommendation follow", func() {
				So(out, ShouldContainSubstring, "Drill:       Three-man pod carry")
				So(out, ShouldContainSubstring, "Reference:   https://")
				So(out, ShouldContainSubstring, "#8  Carrier")
			})
		})
	})

	Convey("Given an incomplete scan", t, func() {
		reg, _ := catalog.Default()
		var buf bytes.Buffer
		scan := model.Scan{ID: "scan-2", Status: model.ScanIncomplete, Scenario: "Own Half vs Drift", Error: "scan incomplete: context deadline exceeded"}

		Convey("When rendering it", func() {
			err := report.Write(&buf, scan, reg)

			Convey("Then no recommendation is printed", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "Status:      incomplete")
				So(buf.String(), ShouldContainSubstring, "No recommendation available.")
				So(buf.String(), ShouldNotContainSubstring, "Recommended play")
			})
		})
	})

	Convey("Given a writer that fails", t, func() {
		reg, _ := catalog.Default()
		err := report.Write(failingWriter{}, doneScan(), reg)
		So(err, ShouldNotBeNil)
	})
}
