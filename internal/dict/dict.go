// Package dict defines the domain types shared by the sentence
// dictionary: the Sentence record, the encode mode, the content hash,
// and the error taxonomy.
package dict

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Sentence is one dictionary entry. Once a Sentence is committed its
// ID and Raw never change; only Occurrences grows.
type Sentence struct {
	ID          int64
	Raw         []byte
	Hash        uint64
	Occurrences int64
}

// HashFunc computes the content hash of a sentence's raw bytes.
// Replaceable so tests can force collisions; the hash is an index
// accelerator, never an identity. Equality is always decided on the
// raw bytes themselves.
type HashFunc func([]byte) uint64

// HashContent is the default content hash (xxhash64 of the raw bytes).
func HashContent(raw []byte) uint64 {
	return xxhash.Sum64(raw)
}

// EncodeMode controls what the encoder does with sentences the
// dictionary has not seen.
type EncodeMode int

const (
	// ModeGrow inserts unknown sentences into the dictionary and
	// emits a reference. Encoding mutates shared state.
	ModeGrow EncodeMode = iota
	// ModeStrict emits unknown sentences as literals and leaves the
	// dictionary untouched, including occurrence counts.
	ModeStrict
)

// String returns the canonical flag spelling of the mode.
func (m EncodeMode) String() string {
	switch m {
	case ModeGrow:
		return "grow"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("EncodeMode(%d)", int(m))
	}
}

// ParseMode converts a flag value into an EncodeMode.
func ParseMode(s string) (EncodeMode, error) {
	switch s {
	case "grow":
		return ModeGrow, nil
	case "strict":
		return ModeStrict, nil
	default:
		return 0, fmt.Errorf("invalid encode mode %q: must be grow or strict", s)
	}
}
