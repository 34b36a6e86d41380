package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/sentdict/internal/dict"
)

// ErrModeConflict reports an attempt to record a configuration choice
// that contradicts the one already recorded for this dictionary.
// Mixing grow and strict encodes against one dictionary makes its
// growth nondeterministic, so the store refuses rather than warns.
var ErrModeConflict = errors.New("recorded configuration conflict")

// InsertOrGet returns the id for raw, inserting a new sentence if no
// committed sentence has exactly these bytes. Returns the id and
// whether a new row was inserted.
//
// The bucket scan and the insert run in a single transaction, so two
// concurrent calls with identical bytes cannot mint two ids: the
// second caller observes the first caller's committed row. A hash
// match against different bytes is treated as a collision and falls
// through to a fresh insert; the bucket simply gains a second entry.
//
// On a match the sentence's occurrence count is incremented in the
// same transaction.
func (s *Store) InsertOrGet(ctx context.Context, raw []byte) (id int64, inserted bool, err error) {
	h := int64(s.hash(raw))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("insert or get: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Scan the hash bucket with byte verification. The bucket is
	// almost always empty or a single row; collisions just make it
	// longer. Candidates are collected before any further statement
	// runs because the pool holds a single connection.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, raw_bytes FROM sentences
		WHERE content_hash = ?
		ORDER BY id ASC
	`, h)
	if err != nil {
		return 0, false, fmt.Errorf("insert or get: query bucket: %w", err)
	}

	foundID := int64(-1)
	for rows.Next() {
		var candID int64
		var candRaw []byte
		if err := rows.Scan(&candID, &candRaw); err != nil {
			rows.Close()
			return 0, false, fmt.Errorf("insert or get: scan bucket: %w", err)
		}
		if foundID < 0 && bytes.Equal(candRaw, raw) {
			foundID = candID
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, false, fmt.Errorf("insert or get: iterate bucket: %w", err)
	}
	rows.Close()

	if foundID >= 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE sentences SET occurrences = occurrences + 1 WHERE id = ?
		`, foundID); err != nil {
			return 0, false, fmt.Errorf("insert or get: count occurrence for id %d: %w", foundID, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, fmt.Errorf("insert or get: commit (existing): %w", err)
		}
		return foundID, false, nil
	}

	// ON CONFLICT DO NOTHING claims the slot atomically via the
	// UNIQUE(content_hash, raw_bytes) constraint: if another process
	// committed the same content between our scan and this insert,
	// zero rows are affected and we adopt the existing id instead.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO sentences (content_hash, raw_bytes, occurrences)
		VALUES (?, ?, 1)
		ON CONFLICT(content_hash, raw_bytes) DO NOTHING
	`, h, raw)
	if err != nil {
		return 0, false, fmt.Errorf("insert or get: insert sentence: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert or get: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Lost the race - adopt the winner's id and count this call.
		if err := tx.QueryRowContext(ctx, `
			SELECT id FROM sentences WHERE content_hash = ? AND raw_bytes = ?
		`, h, raw).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("insert or get: select existing: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE sentences SET occurrences = occurrences + 1 WHERE id = ?
		`, id); err != nil {
			return 0, false, fmt.Errorf("insert or get: count occurrence for id %d: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, fmt.Errorf("insert or get: commit (raced): %w", err)
		}
		return id, false, nil
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("insert or get: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("insert or get: commit: %w", err)
	}

	return id, true, nil
}

// RecordEncodeMode records the encode mode on first use and verifies
// it on every later use. A conflicting mode returns ErrModeConflict.
func (s *Store) RecordEncodeMode(ctx context.Context, mode dict.EncodeMode) error {
	return s.recordChoice(ctx, metaEncodeMode, mode.String())
}

// RecordNormalizeEOL records whether units are CRLF-normalized before
// hashing. Like the encode mode, the first recorded value wins and a
// conflicting later value returns ErrModeConflict.
func (s *Store) RecordNormalizeEOL(ctx context.Context, normalize bool) error {
	return s.recordChoice(ctx, metaNormalizeEOL, strconv.FormatBool(normalize))
}

// recordChoice implements write-once meta semantics: insert if
// absent, then verify the committed value matches.
func (s *Store) recordChoice(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record %s: begin tx: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)
	`, key, value); err != nil {
		return fmt.Errorf("record %s: insert: %w", key, err)
	}

	var committed string
	if err := tx.QueryRowContext(ctx, `
		SELECT value FROM meta WHERE key = ?
	`, key).Scan(&committed); err != nil {
		return fmt.Errorf("record %s: read back: %w", key, err)
	}

	if committed != value {
		return fmt.Errorf("%s is recorded as %q, refusing %q: %w",
			key, committed, value, ErrModeConflict)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record %s: commit: %w", key, err)
	}
	return nil
}
