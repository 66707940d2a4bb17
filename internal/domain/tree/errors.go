package tree

import "errors"

// ErrUnknownTrigger is returned when a reaction label is not a trigger of
// the current node.
var ErrUnknownTrigger = errors.New("unknown trigger")
