package scanclient

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
)

// Scenario generation bounds.
const (
	maxPhase      = 6
	minCandidates = 2
	maxCandidates = 4
)

// Generate builds n scan requests over data. The same seed yields the same
// scenarios and candidates; ids are always fresh.
func Generate(data catalog.Data, n int, seed int64, trials int) ([]model.ScanRequest, error) {
	if n < 1 {
		return nil, ErrNoScans
	}
	if len(data.Zones) == 0 || len(data.Defenses) == 0 || len(data.RuckSpeeds) == 0 ||
		len(data.Sources) == 0 || len(data.Levels) == 0 || len(data.Archetypes) == 0 {
		return nil, fmt.Errorf("catalog is missing scenario entries")
	}
	if len(data.Plays) < minCandidates {
		return nil, fmt.Errorf("catalog has %d plays, need at least %d", len(data.Plays), minCandidates)
	}

	rnd := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible scenarios, not secrets
	out := make([]model.ScanRequest, n)
	for i := range out {
		out[i] = model.ScanRequest{
			ID:         uuid.NewString(),
			Selection:  randomSelection(rnd, data),
			Candidates: randomCandidates(rnd, data.Plays),
			Trials:     trials,
			Seed:       seed + int64(i),
		}
	}
	return out, nil
}

// Fixed builds n scan requests that all share one scenario and candidate
// set, each with its own seed.
func Fixed(sel model.Selection, candidates []string, n int, seed int64, trials int) ([]model.ScanRequest, error) {
	if n < 1 {
		return nil, ErrNoScans
	}
	out := make([]model.ScanRequest, n)
	for i := range out {
		out[i] = model.ScanRequest{
			ID:         uuid.NewString(),
			Selection:  sel,
			Candidates: append([]string(nil), candidates...),
			Trials:     trials,
			Seed:       seed + int64(i),
		}
	}
	return out, nil
}

func randomSelection(rnd *rand.Rand, data catalog.Data) model.Selection {
	return model.Selection{
		Zone:    data.Zones[rnd.IntN(len(data.Zones))].Key,
		Defense: data.Defenses[rnd.IntN(len(data.Defenses))].Key,
		Ruck:    data.RuckSpeeds[rnd.IntN(len(data.RuckSpeeds))].Key,
		Source:  data.Sources[rnd.IntN(len(data.Sources))].Key,
		Phase:   1 + rnd.IntN(maxPhase),
		Level:   data.Levels[rnd.IntN(len(data.Levels))].Key,
		Carrier: data.Archetypes[rnd.IntN(len(data.Archetypes))].Key,
	}
}

func randomCandidates(rnd *rand.Rand, plays []catalog.Play) []string {
	n := minCandidates + rnd.IntN(maxCandidates-minCandidates+1)
	n = min(n, len(plays))
	keys := make([]string, 0, n)
	for _, idx := range rnd.Perm(len(plays))[:n] {
		keys = append(keys, plays[idx].Key)
	}
	return keys
}
