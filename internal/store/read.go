package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/roach88/sentdict/internal/dict"
)

// Lookup returns the id of the committed sentence whose raw bytes
// exactly equal raw. Returns dict.ErrNotFound when no such sentence
// exists, including when the hash matches a different content.
// Lookup never mutates the store.
func (s *Store) Lookup(ctx context.Context, raw []byte) (int64, error) {
	h := int64(s.hash(raw))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw_bytes FROM sentences
		WHERE content_hash = ?
		ORDER BY id ASC
	`, h)
	if err != nil {
		return 0, fmt.Errorf("lookup: query bucket: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var candRaw []byte
		if err := rows.Scan(&id, &candRaw); err != nil {
			return 0, fmt.Errorf("lookup: scan bucket: %w", err)
		}
		if bytes.Equal(candRaw, raw) {
			return id, nil
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("lookup: iterate bucket: %w", err)
	}

	return 0, dict.ErrNotFound
}

// Get returns the raw bytes for an id. Returns dict.ErrNotFound when
// the dictionary holds no sentence with that id.
func (s *Store) Get(ctx context.Context, id int64) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT raw_bytes FROM sentences WHERE id = ?
	`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dict.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sentence %d: %w", id, err)
	}
	return raw, nil
}

// DictionaryID returns the UUID minted when the database was created.
func (s *Store) DictionaryID(ctx context.Context) (uuid.UUID, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM meta WHERE key = ?
	`, metaDictionaryID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("dictionary id missing from meta: %w", dict.ErrCorrupt)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("read dictionary id: %w", err)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("dictionary id %q unparseable: %w", value, dict.ErrCorrupt)
	}
	return id, nil
}

// RecordedMode returns the encode mode recorded for this dictionary,
// or recorded=false when no encode has run yet.
func (s *Store) RecordedMode(ctx context.Context) (mode dict.EncodeMode, recorded bool, err error) {
	value, ok, err := s.readMeta(ctx, metaEncodeMode)
	if err != nil || !ok {
		return 0, false, err
	}
	mode, err = dict.ParseMode(value)
	if err != nil {
		return 0, false, fmt.Errorf("recorded encode mode %q unparseable: %w", value, dict.ErrCorrupt)
	}
	return mode, true, nil
}

// RecordedNormalizeEOL returns the recorded terminator-normalization
// choice, or recorded=false when none has been made.
func (s *Store) RecordedNormalizeEOL(ctx context.Context) (normalize, recorded bool, err error) {
	value, ok, err := s.readMeta(ctx, metaNormalizeEOL)
	if err != nil || !ok {
		return false, false, err
	}
	normalize, err = strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("recorded normalize_eol %q unparseable: %w", value, dict.ErrCorrupt)
	}
	return normalize, true, nil
}

func (s *Store) readMeta(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM meta WHERE key = ?
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, true, nil
}

// Stats summarizes the dictionary contents.
type Stats struct {
	UniqueSentences  int64 `json:"unique_sentences"`
	TotalOccurrences int64 `json:"total_occurrences"`
	// StoredBytes is the byte volume of unique sentence content.
	StoredBytes int64 `json:"stored_bytes"`
	// LogicalBytes is the byte volume as seen across all occurrences;
	// LogicalBytes - StoredBytes is the deduplicated volume.
	LogicalBytes int64 `json:"logical_bytes"`
}

// Stats returns summary statistics over all committed sentences.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(occurrences), 0),
			COALESCE(SUM(LENGTH(raw_bytes)), 0),
			COALESCE(SUM(occurrences * LENGTH(raw_bytes)), 0)
		FROM sentences
	`).Scan(&st.UniqueSentences, &st.TotalOccurrences, &st.StoredBytes, &st.LogicalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// TopSentences returns the n most frequent sentences. Ties order by
// id ascending for deterministic output.
func (s *Store) TopSentences(ctx context.Context, n int) ([]dict.Sentence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_hash, raw_bytes, occurrences
		FROM sentences
		ORDER BY occurrences DESC, id ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("top sentences: %w", err)
	}
	defer rows.Close()

	var sentences []dict.Sentence
	for rows.Next() {
		var sent dict.Sentence
		var hash int64
		if err := rows.Scan(&sent.ID, &hash, &sent.Raw, &sent.Occurrences); err != nil {
			return nil, fmt.Errorf("top sentences: scan: %w", err)
		}
		sent.Hash = uint64(hash)
		sentences = append(sentences, sent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top sentences: iterate: %w", err)
	}

	if sentences == nil {
		sentences = []dict.Sentence{}
	}
	return sentences, nil
}
