package scanclient

import (
	"fmt"

	"github.com/okian/rugbysim/internal/domain/model"
)

// Verify checks that a finished scan carries a coherent result: a done scan
// ranks every candidate, best first, by non-increasing score; any other
// final status carries no recommendation.
func Verify(scan model.Scan) error { //nolint:gocritic // hugeParam: scan is a value type across the API
	if scan.Status != model.ScanDone {
		if scan.Recommendation != nil {
			return fmt.Errorf("%w: %s scan %s has a recommendation", ErrInconsistent, scan.Status, scan.ID)
		}
		return nil
	}
	rec := scan.Recommendation
	if rec == nil {
		return fmt.Errorf("%w: done scan %s has no recommendation", ErrInconsistent, scan.ID)
	}
	if len(rec.Ranked) != len(scan.Request.Candidates) {
		return fmt.Errorf("%w: scan %s ranked %d of %d candidates",
			ErrInconsistent, scan.ID, len(rec.Ranked), len(scan.Request.Candidates))
	}
	if rec.Best.Play != rec.Ranked[0].Play {
		return fmt.Errorf("%w: scan %s best %q is not ranked first (%q)",
			ErrInconsistent, scan.ID, rec.Best.Play, rec.Ranked[0].Play)
	}
	for i, r := range rec.Ranked {
		if i > 0 && r.Score > rec.Ranked[i-1].Score {
			return fmt.Errorf("%w: scan %s ranking not sorted at %d", ErrInconsistent, scan.ID, i)
		}
		if r.Trials != rec.Trials {
			return fmt.Errorf("%w: scan %s play %q ran %d trials, want %d",
				ErrInconsistent, scan.ID, r.Play, r.Trials, rec.Trials)
		}
	}
	return nil
}
