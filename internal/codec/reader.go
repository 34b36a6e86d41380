package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sentdict/internal/dict"
)

// Reader decodes a reference stream token by token.
type Reader struct {
	br     *bufio.Reader
	offset int64
}

// NewReader validates the stream header and returns a Reader
// positioned at the first token. Bad magic and unknown versions are
// corruption errors.
func NewReader(r io.Reader) (*Reader, Header, error) {
	rd := &Reader{br: bufio.NewReader(r)}

	var raw [headerSize]byte
	n, err := io.ReadFull(rd.br, raw[:])
	rd.offset += int64(n)
	if err != nil {
		return nil, Header{}, fmt.Errorf("read stream header: %w: %w", err, dict.ErrCorrupt)
	}

	if string(raw[:4]) != streamMagic {
		return nil, Header{}, fmt.Errorf("bad stream magic %q: %w", raw[:4], dict.ErrCorrupt)
	}

	var hdr Header
	hdr.Version = binary.LittleEndian.Uint16(raw[4:6])
	if hdr.Version != streamVersion {
		return nil, Header{}, fmt.Errorf("unsupported stream version %d: %w", hdr.Version, dict.ErrCorrupt)
	}
	copy(hdr.DictionaryID[:], raw[6:])

	return rd, hdr, nil
}

// Next returns the next token. It returns io.EOF at a clean end of
// stream; a stream truncated mid-token is a corruption error carrying
// the byte offset where decoding failed.
func (r *Reader) Next() (Token, error) {
	tagOffset := r.offset
	tag, err := r.br.ReadByte()
	if err == io.EOF {
		return Token{}, io.EOF
	}
	if err != nil {
		return Token{}, fmt.Errorf("read token tag at offset %d: %w", tagOffset, err)
	}
	r.offset++

	kind, term, ok := unpackTag(tag)
	if !ok {
		return Token{}, fmt.Errorf("invalid token tag 0x%02x at offset %d: %w", tag, tagOffset, dict.ErrCorrupt)
	}

	tok := Token{Kind: kind, Terminator: term}
	switch kind {
	case KindReference:
		id, err := r.readUvarint()
		if err != nil {
			return Token{}, fmt.Errorf("read reference id at offset %d: %w", tagOffset, err)
		}
		if id == 0 || id > 1<<62 {
			return Token{}, fmt.Errorf("reference id %d out of range at offset %d: %w", id, tagOffset, dict.ErrCorrupt)
		}
		tok.ID = int64(id)

	case KindLiteral:
		length, err := r.readUvarint()
		if err != nil {
			return Token{}, fmt.Errorf("read literal length at offset %d: %w", tagOffset, err)
		}
		if length > maxLiteralBytes {
			return Token{}, fmt.Errorf("literal of %d bytes exceeds cap %d at offset %d: %w",
				length, maxLiteralBytes, tagOffset, dict.ErrCorrupt)
		}
		text := make([]byte, length)
		n, err := io.ReadFull(r.br, text)
		r.offset += int64(n)
		if err != nil {
			return Token{}, fmt.Errorf("read literal payload at offset %d: %w: %w", tagOffset, err, dict.ErrCorrupt)
		}
		tok.Text = text

	case KindBlank:
		// Tag byte only.
	}

	return tok, nil
}

// readUvarint reads a varint, mapping truncation to corruption.
func (r *Reader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(countingByteReader{r})
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("truncated varint: %w", dict.ErrCorrupt)
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// countingByteReader tracks the stream offset for error reporting.
type countingByteReader struct {
	r *Reader
}

func (c countingByteReader) ReadByte() (byte, error) {
	b, err := c.r.br.ReadByte()
	if err == nil {
		c.r.offset++
	}
	return b, err
}
