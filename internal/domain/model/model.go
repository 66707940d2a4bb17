// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/okian/rugbysim/internal/domain/catalog"
)

// Carry bonus override bounds accepted from callers.
const (
	MinCarryBonus = 0.8
	MaxCarryBonus = 1.5
)

// Selection is a scenario described by catalog keys or names, as supplied by
// a caller. It is resolved into a Context by NewContext.
type Selection struct {
	Zone       string   `json:"zone"`
	Defense    string   `json:"defense"`
	Ruck       string   `json:"ruck"`
	Source     string   `json:"source"`
	Phase      int      `json:"phase"`
	Level      string   `json:"level"`
	Carrier    string   `json:"carrier"`
	CarryBonus *float64 `json:"carry_bonus,omitempty"` // optional override
}

// Context is the resolved, immutable parameter set of one trial.
type Context struct {
	Zone    catalog.Zone
	Defense catalog.Defense
	Ruck    catalog.RuckSpeed
	Source  catalog.Source
	Phase   int
	Level   catalog.Level
	Carrier catalog.Archetype
}

// NewContext validates every selection against reg. A zero phase means the
// first phase.
func NewContext(reg *catalog.Registry, sel Selection) (Context, error) {
	var (
		c   Context
		err error
	)
	if c.Zone, err = reg.Zone(sel.Zone); err != nil {
		return Context{}, err
	}
	if c.Defense, err = reg.Defense(sel.Defense); err != nil {
		return Context{}, err
	}
	if c.Ruck, err = reg.Ruck(sel.Ruck); err != nil {
		return Context{}, err
	}
	if c.Source, err = reg.Source(sel.Source); err != nil {
		return Context{}, err
	}
	if c.Level, err = reg.Level(sel.Level); err != nil {
		return Context{}, err
	}
	if c.Carrier, err = reg.Archetype(sel.Carrier); err != nil {
		return Context{}, err
	}
	switch {
	case sel.Phase < 0:
		return Context{}, fmt.Errorf("%w: %d", ErrInvalidPhase, sel.Phase)
	case sel.Phase == 0:
		c.Phase = 1
	default:
		c.Phase = sel.Phase
	}
	if sel.CarryBonus != nil {
		v := *sel.CarryBonus
		if v < MinCarryBonus || v > MaxCarryBonus {
			return Context{}, fmt.Errorf("%w: carry bonus %.2f outside [%.1f, %.1f]", ErrInvalidOverride, v, MinCarryBonus, MaxCarryBonus)
		}
		c.Carrier = c.Carrier.WithCarryBonus(v)
	}
	return c, nil
}

// Describe renders the scenario for humans.
func (c Context) Describe() string {
	return fmt.Sprintf("%s vs %s, %s ball from %s, phase %d, %s level, carrier %s (carry %.2f)",
		c.Zone.Name, c.Defense.Name, c.Ruck.Name, c.Source.Name, c.Phase, c.Level.Name, c.Carrier.Name, c.Carrier.CarryBonus)
}

// TrialOutcome is the result of one execution of a play.
type TrialOutcome struct {
	Gain              float64 `json:"gain"`
	Turnover          bool    `json:"turnover"`
	MatchupTurnover   bool    `json:"matchup_turnover"`   // the defense's strength punished the call
	ExecutionTurnover bool    `json:"execution_turnover"` // the general risk draw failed
	Probability       float64 `json:"probability"`        // clamped execution turnover probability
	Saturated         bool    `json:"saturated"`          // raw probability exceeded 1
}

// Step records one executed play in a plan.
type Step struct {
	Play    string       `json:"play"`
	Phase   int          `json:"phase"`
	Zone    string       `json:"zone"`
	Ruck    string       `json:"ruck"`
	Outcome TrialOutcome `json:"outcome"`
	Meters  float64      `json:"meters"` // cumulative after the step
}

// State is a simulation session threaded through a plan. Each executed play
// yields a new State; callers never share one between trials.
type State struct {
	Context
	Meters   float64
	Turnover bool
	Steps    []Step
}

// NewState starts a session at c with no meters gained.
func NewState(c Context) State {
	return State{Context: c}
}

// Factory produces a fresh State for one trial.
type Factory func() State

// FactoryFor returns a Factory that always starts from c.
func FactoryFor(c Context) Factory {
	return func() State { return NewState(c) }
}

// AggregateResult summarises many trials of one play in one context.
type AggregateResult struct {
	Play                string  `json:"play"`
	Name                string  `json:"name"`
	Trials              int     `json:"trials"`
	MeanGain            float64 `json:"mean_gain"`
	GainStdDev          float64 `json:"gain_stddev"`
	MaxGain             float64 `json:"max_gain"`
	TurnoverRatePercent float64 `json:"turnover_rate_percent"`
	MatchupTurnovers    int     `json:"matchup_turnovers"`
	ExecutionTurnovers  int     `json:"execution_turnovers"`
	SaturatedTrials     int     `json:"saturated_trials"`
	Score               float64 `json:"score"`
}

// Recommendation is a complete ranking of candidate plays.
type Recommendation struct {
	Best       AggregateResult   `json:"best"`
	Ranked     []AggregateResult `json:"ranked"`
	RiskWeight float64           `json:"risk_weight"`
	Trials     int               `json:"trials"`
}

// Scan statuses.
const (
	ScanQueued     = "queued"
	ScanRunning    = "running"
	ScanDone       = "done"
	ScanIncomplete = "incomplete"
	ScanFailed     = "failed"
)

// ScanRequest asks for a recommendation to be computed asynchronously.
type ScanRequest struct {
	ID         string    `json:"scan_id"`
	Selection  Selection `json:"scenario"`
	Candidates []string  `json:"candidates"`
	Trials     int       `json:"trials"`
	Seed       int64     `json:"seed"`
}

// Scan is the stored state of a ScanRequest. Recommendation is set only
// when Status is ScanDone.
type Scan struct {
	ID             string          `json:"scan_id"`
	Status         string          `json:"status"`
	Scenario       string          `json:"scenario"`
	Request        ScanRequest     `json:"request"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    time.Time       `json:"completed_at,omitempty"`
}

// Finished reports whether the scan has reached a final status.
func (s Scan) Finished() bool {
	switch s.Status {
	case ScanDone, ScanIncomplete, ScanFailed:
		return true
	default:
		return false
	}
}
