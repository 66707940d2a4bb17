// Package montecarlo runs repeated independent trials of one play and reduces
// them to summary statistics.
package montecarlo

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
	"github.com/okian/rugbysim/internal/domain/plan"
	"github.com/okian/rugbysim/internal/domain/rng"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultSeed    = 42
	defaultWorkers = 1
)

// SourceFactory returns the randomness source for trial i.
type SourceFactory func(trial int) rng.Source

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSeed sets the run seed trial sources are derived from.
func WithSeed(seed int64) Option {
	return func(a *Aggregator) { a.seed = seed }
}

// WithWorkers runs trials on n goroutines. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithSourceFactory replaces the per-trial seeded sources. A factory that
// hands out one shared source must only be used with a single worker.
func WithSourceFactory(f SourceFactory) Option {
	return func(a *Aggregator) {
		if f != nil {
			a.sources = f
		}
	}
}

// Aggregator runs Monte Carlo trials through a plan simulator.
type Aggregator struct {
	sim     *plan.Simulator
	seed    int64
	workers int
	sources SourceFactory
}

// New creates an Aggregator.
func New(sim *plan.Simulator, opts ...Option) *Aggregator {
	a := &Aggregator{
		sim:     sim,
		seed:    defaultSeed,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sources == nil {
		seed := a.seed
		a.sources = func(i int) rng.Source { return rng.New(rng.TrialSeed(seed, i)) }
	}
	return a
}

// Seed returns the run seed.
func (a *Aggregator) Seed() int64 { return a.seed }

// trial is the raw record of one run.
type trial struct {
	gain      float64
	turnover  bool
	matchup   bool
	execution bool
	saturated bool
}

// Aggregate runs exactly trials single-play plans of play, each on a fresh
// state from factory, and reduces them. With several workers factory is
// called concurrently. Results do not depend on the worker count.
func (a *Aggregator) Aggregate(ctx context.Context, play string, factory model.Factory, trials int) (model.AggregateResult, error) {
	if trials <= 0 {
		return model.AggregateResult{}, fmt.Errorf("%w: %d", ErrInvalidTrialCount, trials)
	}
	plays, err := a.sim.Resolve([]string{play})
	if err != nil {
		return model.AggregateResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.AggregateResult{}, fmt.Errorf("aggregate %s: %w", play, err)
	}

	records := make([]trial, trials)
	run := func(i int) {
		start := factory()
		end := a.sim.Run(start, plays, a.sources(i))
		r := trial{gain: end.Meters - start.Meters, turnover: end.Turnover}
		if len(end.Steps) > len(start.Steps) {
			out := end.Steps[len(end.Steps)-1].Outcome
			r.matchup, r.execution, r.saturated = out.MatchupTurnover, out.ExecutionTurnover, out.Saturated
		}
		records[i] = r
	}

	workers := min(a.workers, trials)
	if workers == 1 {
		for i := range trials {
			run(i)
		}
	} else {
		var wg sync.WaitGroup
		for w := range workers {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < trials; i += workers {
					run(i)
				}
			}(w)
		}
		wg.Wait()
	}

	return reduce(plays[0], records), nil
}

func reduce(p catalog.Play, records []trial) model.AggregateResult {
	res := model.AggregateResult{Play: p.Key, Name: p.Name, Trials: len(records)}
	gains := make([]float64, len(records))
	turnovers := 0
	for i, r := range records {
		gains[i] = r.gain
		if r.turnover {
			turnovers++
		}
		if r.matchup {
			res.MatchupTurnovers++
		}
		if r.execution {
			res.ExecutionTurnovers++
		}
		if r.saturated {
			res.SaturatedTrials++
		}
	}
	res.MeanGain, res.GainStdDev = stat.MeanStdDev(gains, nil)
	if len(gains) < 2 {
		res.GainStdDev = 0
	}
	res.MaxGain = floats.Max(gains)
	res.TurnoverRatePercent = 100 * float64(turnovers) / float64(len(records))
	return res
}
