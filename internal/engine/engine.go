// Package engine orchestrates seeding, encoding, and decoding against
// the sentence dictionary. It owns the loop over splitter units and
// the grow/strict policy; persistence and wire format live in the
// store and codec packages.
package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/sentdict/internal/dict"
	"github.com/roach88/sentdict/internal/store"
)

// Options configures an Engine.
type Options struct {
	// Mode controls what encoding does with unknown sentences.
	Mode dict.EncodeMode
	// NormalizeEOL rewrites CRLF terminators to LF before hashing.
	// Recorded in the dictionary on first use; a later conflicting
	// value is refused by the store.
	NormalizeEOL bool
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Engine runs dictionary operations. One Engine per process
// invocation; the store is the only shared state across invocations.
type Engine struct {
	store  *store.Store
	mode   dict.EncodeMode
	norm   bool
	logger *slog.Logger
}

// New creates an Engine over an open store.
func New(st *store.Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  st,
		mode:   opts.Mode,
		norm:   opts.NormalizeEOL,
		logger: logger,
	}
}

// recordChoices persists the engine's configuration on the dictionary
// so later invocations cannot silently mix policies.
func (e *Engine) recordChoices(ctx context.Context, includeMode bool) error {
	if err := e.store.RecordNormalizeEOL(ctx, e.norm); err != nil {
		return err
	}
	if includeMode {
		if err := e.store.RecordEncodeMode(ctx, e.mode); err != nil {
			return err
		}
	}
	return nil
}
