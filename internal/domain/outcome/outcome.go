// Package outcome is the single-trial model: it turns a play, a resolved
// context and a randomness source into meters gained and a turnover flag.
package outcome

import (
	"math"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/rng"
)

// Model constants.
const (
	WeaknessMod            = 1.3  // play exploits the defense's weakness
	StrengthMod            = 0.7  // play runs into the defense's strength
	StrengthTurnoverChance = 0.40 // flat chance the strength matchup forces a turnover
	StructuredSafety       = 0.8  // risk multiplier on the first phase off a set piece
	PhaseDecayStart        = 4
	PhaseDecayRate         = 0.1
	VarianceLow            = 0.8
	VarianceHigh           = 1.2
)

// Option configures a Model.
type Option func(*Model)

// WithoutPhaseDecay disables fatigue decay on later phases.
func WithoutPhaseDecay() Option {
	return func(m *Model) { m.phaseDecay = false }
}

// Model computes trial outcomes. It holds no per-trial state and is safe for
// concurrent use as long as each goroutine has its own Source.
type Model struct {
	phaseDecay bool
}

// New returns a Model with phase decay enabled.
func New(opts ...Option) *Model {
	m := &Model{phaseDecay: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Factors are the deterministic multipliers of one play in one context.
type Factors struct {
	ZoneGain    float64
	ZoneRisk    float64
	Ruck        float64
	Defense     float64 // def_mod
	Safety      float64
	Speed       float64
	ErrorMargin float64
	Decay       float64
	Strength    bool // the play is the defense's strength
}

// Factors evaluates the deterministic part of the model.
func (m *Model) Factors(play catalog.Play, ctx model.Context) Factors {
	f := Factors{
		ZoneGain:    ctx.Zone.GainMod,
		ZoneRisk:    ctx.Zone.RiskMod,
		Ruck:        ctx.Ruck.Multiplier,
		Defense:     1.0,
		Safety:      1.0,
		Speed:       ctx.Level.SpeedMod,
		ErrorMargin: ctx.Level.ErrorMargin,
		Decay:       1.0,
	}
	key := catalog.Normalize(play.Key)
	switch key {
	case catalog.Normalize(ctx.Defense.Weakness):
		f.Defense = WeaknessMod
	case catalog.Normalize(ctx.Defense.Strength):
		f.Defense = StrengthMod
		f.Strength = true
	}
	if ctx.Source.Structured && ctx.Phase == 1 {
		f.Safety = StructuredSafety
	}
	if m.phaseDecay && ctx.Phase >= PhaseDecayStart {
		f.Decay = 1 - PhaseDecayRate*ctx.Level.Fatigue*float64(ctx.Phase-PhaseDecayStart+1)
	}
	return f
}

// Execute runs one trial. Draws are consumed in a fixed order: the strength
// roll (only for a strength matchup), the gain variance, the risk roll.
// It never fails.
func (m *Model) Execute(play catalog.Play, ctx model.Context, src rng.Source) model.TrialOutcome {
	f := m.Factors(play, ctx)
	var out model.TrialOutcome

	if f.Strength && src.Float64() < StrengthTurnoverChance {
		out.MatchupTurnover = true
	}

	gain := play.BaseGain * f.Ruck * ctx.Carrier.CarryBonus * f.ZoneGain * f.Defense * f.Speed * f.Decay
	gain *= rng.Uniform(src, VarianceLow, VarianceHigh)
	out.Gain = math.Max(0, gain)

	p := play.BaseRisk * f.ZoneRisk * ctx.Defense.RiskMod * f.Safety / ctx.Carrier.DecisionBonus / f.ErrorMargin
	if p > 1 {
		out.Saturated = true
		p = 1
	}
	if p < 0 {
		p = 0
	}
	out.Probability = p
	// p == 1 must always turn over even though draws are in [0, 1).
	if src.Float64() < p {
		out.ExecutionTurnover = true
	}

	out.Turnover = out.MatchupTurnover || out.ExecutionTurnover
	return out
}
