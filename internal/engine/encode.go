package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sentdict/internal/codec"
	"github.com/roach88/sentdict/internal/dict"
	"github.com/roach88/sentdict/internal/splitter"
)

// EncodeStats summarizes one encoding run.
type EncodeStats struct {
	Units        int64 `json:"units"`
	References   int64 `json:"references"`
	Literals     int64 `json:"literals"`
	Blanks       int64 `json:"blanks"`
	NewSentences int64 `json:"new_sentences"`
	InputBytes   int64 `json:"input_bytes"`
}

// Encode turns an input into a reference stream against the
// dictionary. The engine's mode decides what happens on a lookup
// miss: grow inserts the sentence and emits a reference (mutating
// shared state), strict emits a literal and leaves the dictionary
// untouched. Strict lookups do not even count occurrences, so a
// fixed reference corpus stays byte-identical on disk.
//
// The mode is recorded on the dictionary on first use; encoding with
// a conflicting mode later fails before any output is written.
func (e *Engine) Encode(ctx context.Context, r io.Reader, w io.Writer) (EncodeStats, error) {
	var stats EncodeStats

	if err := e.recordChoices(ctx, true); err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}

	dictID, err := e.store.DictionaryID(ctx)
	if err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}

	cw, err := codec.NewWriter(w, dictID)
	if err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}

	sp := splitter.New(r, splitter.Options{NormalizeEOL: e.norm})
	for {
		unit, err := sp.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("encode: read input: %w", err)
		}
		stats.Units++
		stats.InputBytes += int64(len(unit.Text)) + int64(len(unit.Terminator.Bytes()))

		if len(unit.Text) == 0 {
			if err := cw.WriteBlank(unit.Terminator); err != nil {
				return stats, fmt.Errorf("encode: %w", err)
			}
			stats.Blanks++
			continue
		}

		if err := e.encodeUnit(ctx, cw, unit, &stats); err != nil {
			return stats, fmt.Errorf("encode: %w", err)
		}
	}

	if err := cw.Flush(); err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}
	return stats, nil
}

func (e *Engine) encodeUnit(ctx context.Context, cw *codec.Writer, unit splitter.Unit, stats *EncodeStats) error {
	if e.mode == dict.ModeGrow {
		// Insert-or-get covers both the hit (occurrence counted) and
		// the miss (new sentence minted) in one transaction.
		id, inserted, err := e.store.InsertOrGet(ctx, unit.Text)
		if err != nil {
			return err
		}
		if inserted {
			stats.NewSentences++
		}
		stats.References++
		return cw.WriteReference(id, unit.Terminator)
	}

	id, err := e.store.Lookup(ctx, unit.Text)
	if errors.Is(err, dict.ErrNotFound) {
		stats.Literals++
		return cw.WriteLiteral(unit.Text, unit.Terminator)
	}
	if err != nil {
		return err
	}
	stats.References++
	return cw.WriteReference(id, unit.Terminator)
}
