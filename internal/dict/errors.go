package dict

import (
	"errors"
	"fmt"
)

// ErrNotFound reports a lookup miss: no committed sentence has raw
// bytes exactly equal to the queried content. A hash match against
// different bytes is still ErrNotFound.
var ErrNotFound = errors.New("sentence not found")

// ErrCorrupt reports unparseable persisted state, a damaged database
// or a malformed reference stream. Operations fail fast on it rather
// than attempting partial recovery, since recovery could propagate a
// wrong id→bytes mapping.
var ErrCorrupt = errors.New("corrupt dictionary state")

// UnresolvedReferenceError is the fatal decode error for a stream
// that references an id the dictionary does not hold. It signals
// version skew: the dictionary used to decode is not a superset of
// the one used to encode.
type UnresolvedReferenceError struct {
	ID int64
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: dictionary has no sentence with id %d", e.ID)
}
