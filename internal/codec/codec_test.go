package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/sentdict/internal/dict"
	"github.com/roach88/sentdict/internal/splitter"
)

var testDictID = uuid.MustParse("0192c2f1-0000-7000-8000-000000000001")

// buildStream writes tokens through the Writer and returns the raw
// stream bytes.
func buildStream(t *testing.T, write func(*Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testDictID)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	if err := write(w); err != nil {
		t.Fatalf("write tokens failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip_AllTokenKinds(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error {
		if err := w.WriteReference(1, splitter.LF); err != nil {
			return err
		}
		if err := w.WriteLiteral([]byte("Waves 1 ft."), splitter.CRLF); err != nil {
			return err
		}
		if err := w.WriteBlank(splitter.LF); err != nil {
			return err
		}
		return w.WriteReference(300, splitter.None)
	})

	r, hdr, err := NewReader(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	if hdr.Version != streamVersion {
		t.Errorf("header version = %d, want %d", hdr.Version, streamVersion)
	}
	if hdr.DictionaryID != testDictID {
		t.Errorf("header dictionary id = %s, want %s", hdr.DictionaryID, testDictID)
	}

	want := []Token{
		{Kind: KindReference, ID: 1, Terminator: splitter.LF},
		{Kind: KindLiteral, Text: []byte("Waves 1 ft."), Terminator: splitter.CRLF},
		{Kind: KindBlank, Terminator: splitter.LF},
		{Kind: KindReference, ID: 300, Terminator: splitter.None},
	}
	for i, w := range want {
		tok, err := r.Next()
		if err != nil {
			t.Fatalf("Next() token %d failed: %v", i, err)
		}
		if tok.Kind != w.Kind || tok.ID != w.ID || tok.Terminator != w.Terminator || !bytes.Equal(tok.Text, w.Text) {
			t.Errorf("token %d = %+v, want %+v", i, tok, w)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestRoundTrip_EmptyLiteralAndLargeID(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error {
		if err := w.WriteLiteral(nil, splitter.LF); err != nil {
			return err
		}
		return w.WriteReference(1<<40, splitter.LF)
	})

	r, _, err := NewReader(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}

	tok, err := r.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if tok.Kind != KindLiteral || len(tok.Text) != 0 {
		t.Errorf("empty literal round-tripped as %+v", tok)
	}

	tok, err = r.Next()
	if err != nil {
		t.Fatalf("Next() failed: %v", err)
	}
	if tok.ID != 1<<40 {
		t.Errorf("large id round-tripped as %d", tok.ID)
	}
}

func TestWriteReference_RejectsNonPositiveID(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, testDictID)
	if err != nil {
		t.Fatalf("NewWriter() failed: %v", err)
	}
	if err := w.WriteReference(0, splitter.LF); err == nil {
		t.Error("WriteReference(0) succeeded, want error")
	}
}

func TestNewReader_BadMagic(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error { return nil })
	stream[0] = 'X'

	_, _, err := NewReader(bytes.NewReader(stream))
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("bad magic error = %v, want ErrCorrupt", err)
	}
}

func TestNewReader_UnknownVersion(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error { return nil })
	binary.LittleEndian.PutUint16(stream[4:6], 99)

	_, _, err := NewReader(bytes.NewReader(stream))
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("unknown version error = %v, want ErrCorrupt", err)
	}
}

func TestNewReader_TruncatedHeader(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error { return nil })

	_, _, err := NewReader(bytes.NewReader(stream[:headerSize-3]))
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("truncated header error = %v, want ErrCorrupt", err)
	}
}

func TestNext_InvalidTag(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error { return nil })
	stream = append(stream, 0x0f) // kind 15 does not exist

	r, _, err := NewReader(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	_, err = r.Next()
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("invalid tag error = %v, want ErrCorrupt", err)
	}
}

func TestNext_TruncatedLiteralPayload(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error {
		return w.WriteLiteral([]byte("full payload"), splitter.LF)
	})

	r, _, err := NewReader(bytes.NewReader(stream[:len(stream)-4]))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	_, err = r.Next()
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("truncated payload error = %v, want ErrCorrupt", err)
	}
}

func TestNext_TruncatedReferenceID(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error {
		return w.WriteReference(1<<40, splitter.LF)
	})

	r, _, err := NewReader(bytes.NewReader(stream[:len(stream)-2]))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	_, err = r.Next()
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("truncated varint error = %v, want ErrCorrupt", err)
	}
}

func TestNext_OversizedLiteralRejectedBeforeAllocation(t *testing.T) {
	stream := buildStream(t, func(w *Writer) error { return nil })
	stream = append(stream, packTag(KindLiteral, splitter.LF))
	var varBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varBuf[:], uint64(maxLiteralBytes)+1)
	stream = append(stream, varBuf[:n]...)

	r, _, err := NewReader(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("NewReader() failed: %v", err)
	}
	_, err = r.Next()
	if !errors.Is(err, dict.ErrCorrupt) {
		t.Errorf("oversized literal error = %v, want ErrCorrupt", err)
	}
}
