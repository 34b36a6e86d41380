package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sentdict/internal/codec"
	"github.com/roach88/sentdict/internal/dict"
)

// Decode reconstructs the original bytes from a reference stream.
// References resolve through the dictionary; a reference to an id the
// dictionary does not hold is a fatal UnresolvedReferenceError (the
// stream was written against a dictionary this one is not a superset
// of) and is never treated as empty content.
//
// A dictionary-id mismatch in the header alone is only a warning: a
// dictionary rebuilt as a superset decodes old streams correctly.
func (e *Engine) Decode(ctx context.Context, r io.Reader, w io.Writer) error {
	cr, hdr, err := codec.NewReader(r)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	dictID, err := e.store.DictionaryID(ctx)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if hdr.DictionaryID != dictID {
		e.logger.Warn("stream was written by a different dictionary",
			"stream_dictionary", hdr.DictionaryID,
			"this_dictionary", dictID,
		)
	}

	bw := bufio.NewWriter(w)
	for {
		tok, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}

		switch tok.Kind {
		case codec.KindReference:
			raw, err := e.store.Get(ctx, tok.ID)
			if errors.Is(err, dict.ErrNotFound) {
				return fmt.Errorf("decode: %w", &dict.UnresolvedReferenceError{ID: tok.ID})
			}
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if _, err := bw.Write(raw); err != nil {
				return fmt.Errorf("decode: write output: %w", err)
			}
		case codec.KindLiteral:
			if _, err := bw.Write(tok.Text); err != nil {
				return fmt.Errorf("decode: write output: %w", err)
			}
		case codec.KindBlank:
			// Terminator only.
		}

		if _, err := bw.Write(tok.Terminator.Bytes()); err != nil {
			return fmt.Errorf("decode: write output: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("decode: write output: %w", err)
	}
	return nil
}
