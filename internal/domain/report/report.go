// Package report renders a scan as plain structured text.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/olekukonko/tablewriter"
)

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Write renders scan to w. Drill and KPI data for the recommended play are
// looked up in reg; a play missing from reg is reported without them.
func Write(w io.Writer, scan model.Scan, reg *catalog.Registry) error {
	p := &printer{w: w}
	p.printf("Scan:        %s\n", scan.ID)
	p.printf("Status:      %s\n", scan.Status)
	p.printf("Scenario:    %s\n", scan.Scenario)

	rec := scan.Recommendation
	if rec == nil {
		if scan.Error != "" {
			p.printf("Error:       %s\n", scan.Error)
		}
		p.printf("\nNo recommendation available.\n")
		return p.err
	}

	p.printf("Trials:      %d per candidate\n", rec.Trials)
	p.printf("Risk weight: %.2f\n\n", rec.RiskWeight)

	best := rec.Best
	p.printf("Recommended play: %s (%s)\n", best.Name, best.Play)
	p.printf("  Mean gain:      %.2f m\n", best.MeanGain)
	p.printf("  Turnover rate:  %.2f %%\n", best.TurnoverRatePercent)
	p.printf("  Score:          %.3f\n\n", best.Score)

	p.printf("Ranked candidates:\n")
	if p.err != nil {
		return p.err
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Play", "Mean gain (m)", "Std dev", "Max gain", "Turnover %", "Matchup", "Execution", "Score"})
	table.SetAutoFormatHeaders(false)
	for i, r := range rec.Ranked {
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.Name,
			fmt.Sprintf("%.2f", r.MeanGain),
			fmt.Sprintf("%.2f", r.GainStdDev),
			fmt.Sprintf("%.2f", r.MaxGain),
			fmt.Sprintf("%.2f", r.TurnoverRatePercent),
			strconv.Itoa(r.MatchupTurnovers),
			strconv.Itoa(r.ExecutionTurnovers),
			fmt.Sprintf("%.3f", r.Score),
		})
	}
	table.Render()

	play, err := reg.Play(best.Play)
	if err != nil {
		return p.err
	}
	p.printf("\nDrill:       %s\n", play.Drill.Name)
	p.printf("Description: %s\n", play.Drill.Description)
	p.printf("Reference:   %s\n", play.Drill.ReferenceURL)
	if len(play.KPIs) > 0 {
		p.printf("KPIs:\n")
		for _, n := range play.Squads() {
			for _, k := range play.KPIs[n] {
				p.printf("  #%-2d %s: %s\n", n, k.Role, k.Target)
			}
		}
	}
	return p.err
}
