package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sentdict/internal/codec"
	"github.com/roach88/sentdict/internal/dict"
	"github.com/roach88/sentdict/internal/store"
)

// newTestEngine opens a fresh dictionary in a temp dir and wraps it
// in an engine.
func newTestEngine(t *testing.T, opts Options) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "dict.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, opts), st
}

// writeCorpusFile writes content to a file in dir and returns its path.
func writeCorpusFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func encodeToBytes(t *testing.T, e *Engine, input string) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := e.Encode(context.Background(), bytes.NewReader([]byte(input)), &buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func decodeToString(t *testing.T, e *Engine, stream []byte) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, e.Decode(context.Background(), bytes.NewReader(stream), &out))
	return out.String()
}

func TestRoundTrip_GrowMode(t *testing.T) {
	inputs := []string{
		"TONIGHT\nTODAY\nWaves 1 ft.\n",
		"mixed\r\nline\nendings\r\n",
		"blank lines\n\n\nsurvive\n",
		"no trailing newline",
		"",
		"\n",
		"repeated\nrepeated\nrepeated\n",
	}

	for _, input := range inputs {
		e, _ := newTestEngine(t, Options{Mode: dict.ModeGrow})
		stream := encodeToBytes(t, e, input)
		got := decodeToString(t, e, stream)
		assert.Equal(t, input, got, "round trip of %q", input)
	}
}

func TestRoundTrip_SharedDictionaryAcrossFiles(t *testing.T) {
	e, _ := newTestEngine(t, Options{Mode: dict.ModeGrow})

	first := "TONIGHT\nWaves 1 ft.\n"
	second := "TODAY\nWaves 1 ft.\nTONIGHT\n"

	streamA := encodeToBytes(t, e, first)
	streamB := encodeToBytes(t, e, second)

	assert.Equal(t, first, decodeToString(t, e, streamA))
	assert.Equal(t, second, decodeToString(t, e, streamB))
}

func TestEncode_SeededCorpusYieldsPureReferences(t *testing.T) {
	e, _ := newTestEngine(t, Options{Mode: dict.ModeGrow})
	ctx := context.Background()

	dir := t.TempDir()
	corpus := writeCorpusFile(t, dir, "corpus.txt", "TONIGHT\nTODAY\nWaves 1 ft.\n")
	stats, err := e.Seed(ctx, []string{corpus})
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.NewSentences)

	stream := encodeToBytes(t, e, "TONIGHT\nTODAY\nWaves 1 ft.\n")

	r, _, err := codec.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)

	var ids []int64
	for {
		tok, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, codec.KindReference, tok.Kind, "seeded input must encode to references only")
		ids = append(ids, tok.ID)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)

	assert.Equal(t, "TONIGHT\nTODAY\nWaves 1 ft.\n", decodeToString(t, e, stream))
}

func TestSeed_Idempotent(t *testing.T) {
	e, st := newTestEngine(t, Options{})
	ctx := context.Background()

	dir := t.TempDir()
	corpus := writeCorpusFile(t, dir, "corpus.txt", "alpha\nbeta\nalpha\n")

	first, err := e.Seed(ctx, []string{corpus})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.NewSentences)
	assert.Equal(t, int64(1), first.DuplicateHits)

	idAlpha, err := st.Lookup(ctx, []byte("alpha"))
	require.NoError(t, err)
	idBeta, err := st.Lookup(ctx, []byte("beta"))
	require.NoError(t, err)

	second, err := e.Seed(ctx, []string{corpus})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.NewSentences, "re-seeding must not mint new ids")
	assert.Equal(t, int64(3), second.DuplicateHits)

	// Same id → bytes map as after the first pass.
	idAlpha2, err := st.Lookup(ctx, []byte("alpha"))
	require.NoError(t, err)
	idBeta2, err := st.Lookup(ctx, []byte("beta"))
	require.NoError(t, err)
	assert.Equal(t, idAlpha, idAlpha2)
	assert.Equal(t, idBeta, idBeta2)

	// Occurrences doubled: 3 insert-or-get calls per pass.
	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.UniqueSentences)
	assert.Equal(t, int64(6), stats.TotalOccurrences)
}

func TestSeed_SkipsBlankLines(t *testing.T) {
	e, st := newTestEngine(t, Options{})
	ctx := context.Background()

	dir := t.TempDir()
	corpus := writeCorpusFile(t, dir, "corpus.txt", "alpha\n\n\nbeta\n")

	stats, err := e.Seed(ctx, []string{corpus})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Units)
	assert.Equal(t, int64(2), stats.NewSentences)

	dbStats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dbStats.UniqueSentences, "blank lines must not become sentences")
}

func TestSeed_UnreadableFileAborts(t *testing.T) {
	e, st := newTestEngine(t, Options{})
	ctx := context.Background()

	dir := t.TempDir()
	good := writeCorpusFile(t, dir, "good.txt", "alpha\n")
	missing := filepath.Join(dir, "missing.txt")

	stats, err := e.Seed(ctx, []string{good, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.txt")

	// The file before the failure is committed and stays committed.
	assert.Equal(t, 1, stats.Files)
	_, err = st.Lookup(ctx, []byte("alpha"))
	assert.NoError(t, err)
}

func TestEncode_StrictModeEmitsLiteralsAndDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dict.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	seeder := New(st, Options{})
	dir := t.TempDir()
	corpus := writeCorpusFile(t, dir, "corpus.txt", "known sentence\n")
	_, err = seeder.Seed(ctx, []string{corpus})
	require.NoError(t, err)

	before, err := st.Stats(ctx)
	require.NoError(t, err)

	strict := New(st, Options{Mode: dict.ModeStrict})
	input := "known sentence\nnever seen before\n"
	stream := encodeToBytes(t, strict, input)

	r, _, err := codec.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)

	tok, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, codec.KindReference, tok.Kind)

	tok, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, codec.KindLiteral, tok.Kind)
	assert.Equal(t, []byte("never seen before"), tok.Text, "literal must carry the sentence bytes verbatim")

	// Dictionary untouched: no new sentences, no occurrence drift.
	after, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.Equal(t, input, decodeToString(t, strict, stream))
}

func TestEncode_ModeConflictRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	grow := New(st, Options{Mode: dict.ModeGrow})
	encodeToBytes(t, grow, "line\n")

	strict := New(st, Options{Mode: dict.ModeStrict})
	var buf bytes.Buffer
	_, err = strict.Encode(context.Background(), bytes.NewReader([]byte("line\n")), &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrModeConflict)
	assert.Zero(t, buf.Len(), "conflicting encode must not write output")
}

func TestDecode_UnresolvedReference(t *testing.T) {
	writer, _ := newTestEngine(t, Options{Mode: dict.ModeGrow})
	stream := encodeToBytes(t, writer, "only in the first dictionary\n")

	reader, _ := newTestEngine(t, Options{})
	var out bytes.Buffer
	err := reader.Decode(context.Background(), bytes.NewReader(stream), &out)
	require.Error(t, err)

	var unresolved *dict.UnresolvedReferenceError
	require.True(t, errors.As(err, &unresolved), "error = %v, want UnresolvedReferenceError", err)
	assert.Equal(t, int64(1), unresolved.ID)
}

func TestDecode_CorruptStream(t *testing.T) {
	e, _ := newTestEngine(t, Options{Mode: dict.ModeGrow})
	stream := encodeToBytes(t, e, "line\n")
	stream[0] = 'X'

	var out bytes.Buffer
	err := e.Decode(context.Background(), bytes.NewReader(stream), &out)
	assert.ErrorIs(t, err, dict.ErrCorrupt)
}

func TestRoundTrip_NormalizeEOL(t *testing.T) {
	e, _ := newTestEngine(t, Options{Mode: dict.ModeGrow, NormalizeEOL: true})

	stream := encodeToBytes(t, e, "alpha\r\nbeta\r\n")
	assert.Equal(t, "alpha\nbeta\n", decodeToString(t, e, stream),
		"normalizing engine reproduces the normalized form")
}

func TestNormalizeEOL_UnifiesSentenceIdentity(t *testing.T) {
	e, st := newTestEngine(t, Options{Mode: dict.ModeGrow, NormalizeEOL: true})
	ctx := context.Background()

	encodeToBytes(t, e, "alpha\r\nalpha\n")

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UniqueSentences,
		"CRLF and LF spellings must hash identically under normalization")
}

func TestNormalizeEOL_ChoiceIsRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	norm := New(st, Options{Mode: dict.ModeGrow, NormalizeEOL: true})
	encodeToBytes(t, norm, "alpha\r\n")

	raw := New(st, Options{Mode: dict.ModeGrow})
	var buf bytes.Buffer
	_, err = raw.Encode(context.Background(), bytes.NewReader([]byte("alpha\n")), &buf)
	assert.ErrorIs(t, err, store.ErrModeConflict)
}
