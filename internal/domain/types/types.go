// Package types contains common read shapes used across the application
package types

import (
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
)

// AggregateRequest asks for the trial statistics of one play.
type AggregateRequest struct {
	Scenario model.Selection `json:"scenario"`
	Play     string          `json:"play"`
	Trials   int             `json:"trials"`
	Seed     int64           `json:"seed"`
}

// SimulateRequest asks for one seeded run of a multi-phase plan.
type SimulateRequest struct {
	Scenario model.Selection `json:"scenario"`
	Plays    []string        `json:"plays"`
	Seed     int64           `json:"seed"`
}

// TreeStep is the node reached by advancing the decision tree.
type TreeStep struct {
	From string           `json:"from"`
	Node catalog.TreeNode `json:"node"`
	Play catalog.Play     `json:"play"`
}

// RankedPlay is one row of a recommendation table.
type RankedPlay struct {
	Rank                int     `json:"rank"`
	Play                string  `json:"play"`
	Name                string  `json:"name"`
	MeanGain            float64 `json:"mean_gain"`
	TurnoverRatePercent float64 `json:"turnover_rate_percent"`
	Score               float64 `json:"score"`
}

// Ranking flattens a recommendation into rows, rank 1 first.
func Ranking(rec model.Recommendation) []RankedPlay {
	out := make([]RankedPlay, len(rec.Ranked))
	for i, r := range rec.Ranked {
		out[i] = RankedPlay{
			Rank:                i + 1,
			Play:                r.Play,
			Name:                r.Name,
			MeanGain:            r.MeanGain,
			TurnoverRatePercent: r.TurnoverRatePercent,
			Score:               r.Score,
		}
	}
	return out
}
