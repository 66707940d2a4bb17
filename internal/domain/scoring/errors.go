package scoring

import "errors"

// Recommender errors.
var (
	ErrEmptyCandidateSet = errors.New("empty candidate set")
	ErrIncomplete        = errors.New("scan incomplete")
)
