package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/roach88/sentdict/internal/splitter"
)

// SeedStats summarizes a seeding run.
type SeedStats struct {
	Files          int   `json:"files"`
	Units          int64 `json:"units"`
	NewSentences   int64 `json:"new_sentences"`
	DuplicateHits  int64 `json:"duplicate_hits"`
	BytesProcessed int64 `json:"bytes_processed"`
}

// Seed ingests every file, in the given order, applying insert-or-get
// to each non-empty sentence unit in file order. Blank lines are
// boundary metadata, not sentences, and are not stored.
//
// Seeding the same corpus again is idempotent in mappings: no id is
// renumbered and no duplicate id is minted for known content, while
// occurrence counts accumulate per actual call.
//
// An unreadable file aborts the run with a path-carrying error.
// Entries committed before the failure remain committed: each
// insert-or-get is its own transaction, so the dictionary is always
// in its last consistent state.
func (e *Engine) Seed(ctx context.Context, paths []string) (SeedStats, error) {
	var stats SeedStats

	if err := e.recordChoices(ctx, false); err != nil {
		return stats, fmt.Errorf("seed: %w", err)
	}

	for _, path := range paths {
		if err := e.seedFile(ctx, path, &stats); err != nil {
			return stats, fmt.Errorf("seed %s: %w", path, err)
		}
		stats.Files++
	}

	e.logger.Info("seeding complete",
		"files", stats.Files,
		"units", stats.Units,
		"new_sentences", stats.NewSentences,
		"duplicate_hits", stats.DuplicateHits,
	)
	return stats, nil
}

func (e *Engine) seedFile(ctx context.Context, path string, stats *SeedStats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	e.logger.Debug("seeding file", "path", path)

	sp := splitter.New(f, splitter.Options{NormalizeEOL: e.norm})
	for {
		unit, err := sp.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		stats.Units++
		stats.BytesProcessed += int64(len(unit.Text)) + int64(len(unit.Terminator.Bytes()))

		if len(unit.Text) == 0 {
			continue
		}

		_, inserted, err := e.store.InsertOrGet(ctx, unit.Text)
		if err != nil {
			return err
		}
		if inserted {
			stats.NewSentences++
		} else {
			stats.DuplicateHits++
		}
	}
}
