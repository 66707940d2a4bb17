// Package plan chains plays into a sequence over a threaded State.
package plan

import (
	"fmt"
	"slices"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/rng"
)

// Chaining constants.
const (
	RedZoneThreshold = 50.0 // cumulative meters after which play moves into the red zone
	QuickRuckAbove   = 0.6
	NormalRuckAbove  = 0.25
)

// Executor runs one trial of a play.
type Executor interface {
	Execute(play catalog.Play, ctx model.Context, src rng.Source) model.TrialOutcome
}

// Simulator executes plans of plays.
type Simulator struct {
	reg     *catalog.Registry
	exec    Executor
	redZone catalog.Zone
	rucks   [3]catalog.RuckSpeed // quick, normal, slow
}

// New builds a Simulator over reg.
func New(reg *catalog.Registry, exec Executor) (*Simulator, error) {
	s := &Simulator{reg: reg, exec: exec}
	var err error
	if s.redZone, err = reg.Zone(catalog.ZoneRedZone); err != nil {
		return nil, fmt.Errorf("plan simulator: %w", err)
	}
	for i, key := range []string{catalog.RuckQuick, catalog.RuckNormal, catalog.RuckSlow} {
		if s.rucks[i], err = reg.Ruck(key); err != nil {
			return nil, fmt.Errorf("plan simulator: %w", err)
		}
	}
	return s, nil
}

// Resolve looks up every play name, failing on the first unknown one.
func (s *Simulator) Resolve(names []string) ([]catalog.Play, error) {
	plays := make([]catalog.Play, 0, len(names))
	for _, name := range names {
		p, err := s.reg.Play(name)
		if err != nil {
			return nil, err
		}
		plays = append(plays, p)
	}
	return plays, nil
}

// Simulate executes names in order starting from state and stops at the
// first turnover; later plays are never executed. Names are resolved before
// any play runs. The input state is not modified.
func (s *Simulator) Simulate(state model.State, names []string, src rng.Source) (model.State, error) {
	plays, err := s.Resolve(names)
	if err != nil {
		return state, err
	}
	return s.Run(state, plays, src), nil
}

// Run executes already resolved plays with the same short-circuit rule as
// Simulate.
func (s *Simulator) Run(state model.State, plays []catalog.Play, src rng.Source) model.State {
	for _, p := range plays {
		if state.Turnover {
			break
		}
		state = s.Step(state, p, src)
	}
	return state
}

// Step executes one play and returns the next state.
func (s *Simulator) Step(state model.State, play catalog.Play, src rng.Source) model.State {
	out := s.exec.Execute(play, state.Context, src)

	next := state
	next.Meters += out.Gain
	next.Turnover = state.Turnover || out.Turnover
	next.Steps = append(slices.Clip(state.Steps), model.Step{
		Play:    play.Key,
		Phase:   state.Phase,
		Zone:    state.Zone.Key,
		Ruck:    state.Ruck.Key,
		Outcome: out,
		Meters:  next.Meters,
	})

	if next.Meters > RedZoneThreshold {
		next.Zone = s.redZone
	}
	next.Ruck = s.drawRuck(src)
	next.Phase++
	return next
}

func (s *Simulator) drawRuck(src rng.Source) catalog.RuckSpeed {
	switch d := src.Float64(); {
	case d > QuickRuckAbove:
		return s.rucks[0]
	case d > NormalRuckAbove:
		return s.rucks[1]
	default:
		return s.rucks[2]
	}
}
