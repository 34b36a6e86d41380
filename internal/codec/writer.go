package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/roach88/sentdict/internal/splitter"
)

// Writer emits a reference stream. Tokens are buffered; callers must
// Flush before trusting the output.
type Writer struct {
	bw     *bufio.Writer
	varBuf [binary.MaxVarintLen64]byte
}

// NewWriter writes the stream header for the given dictionary and
// returns a Writer for its tokens.
func NewWriter(w io.Writer, dictID uuid.UUID) (*Writer, error) {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(streamMagic); err != nil {
		return nil, fmt.Errorf("write magic: %w", err)
	}
	var version [2]byte
	binary.LittleEndian.PutUint16(version[:], streamVersion)
	if _, err := bw.Write(version[:]); err != nil {
		return nil, fmt.Errorf("write version: %w", err)
	}
	if _, err := bw.Write(dictID[:]); err != nil {
		return nil, fmt.Errorf("write dictionary id: %w", err)
	}

	return &Writer{bw: bw}, nil
}

// WriteReference emits a reference token for a dictionary id.
func (w *Writer) WriteReference(id int64, term splitter.Terminator) error {
	if id <= 0 {
		return fmt.Errorf("write reference: invalid id %d", id)
	}
	if err := w.bw.WriteByte(packTag(KindReference, term)); err != nil {
		return fmt.Errorf("write reference tag: %w", err)
	}
	if err := w.writeUvarint(uint64(id)); err != nil {
		return fmt.Errorf("write reference id %d: %w", id, err)
	}
	return nil
}

// WriteLiteral emits the sentence bytes inline.
func (w *Writer) WriteLiteral(text []byte, term splitter.Terminator) error {
	if len(text) > maxLiteralBytes {
		return fmt.Errorf("write literal: %d bytes exceeds cap %d", len(text), maxLiteralBytes)
	}
	if err := w.bw.WriteByte(packTag(KindLiteral, term)); err != nil {
		return fmt.Errorf("write literal tag: %w", err)
	}
	if err := w.writeUvarint(uint64(len(text))); err != nil {
		return fmt.Errorf("write literal length: %w", err)
	}
	if _, err := w.bw.Write(text); err != nil {
		return fmt.Errorf("write literal payload: %w", err)
	}
	return nil
}

// WriteBlank emits a blank-line token.
func (w *Writer) WriteBlank(term splitter.Terminator) error {
	if err := w.bw.WriteByte(packTag(KindBlank, term)); err != nil {
		return fmt.Errorf("write blank tag: %w", err)
	}
	return nil
}

// Flush forces buffered tokens to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush stream: %w", err)
	}
	return nil
}

func (w *Writer) writeUvarint(v uint64) error {
	n := binary.PutUvarint(w.varBuf[:], v)
	_, err := w.bw.Write(w.varBuf[:n])
	return err
}
