// Package codec implements the reference-stream wire format.
//
// Wire format (version 1):
//
//	magic   [4]byte = "SDRS"
//	version uint16 little-endian
//	dictID  [16]byte (UUID of the dictionary that wrote the stream)
//	tokens  until EOF
//
// Each token starts with a tag byte: the low nibble holds the token
// kind (0 reference, 1 literal, 2 blank) and the high nibble the line
// terminator that followed the unit (0 none, 1 LF, 2 CRLF).
//
//	reference: uvarint sentence id
//	literal:   uvarint length, then that many raw bytes
//	blank:     no payload
//
// Literal payloads are capped at 1 MiB on read; anything longer is
// treated as corruption rather than allocated.
package codec

import (
	"github.com/google/uuid"

	"github.com/roach88/sentdict/internal/splitter"
)

const (
	streamMagic   = "SDRS"
	streamVersion = uint16(1)

	headerSize = 4 + 2 + 16

	maxLiteralBytes = 1 << 20 // 1 MiB
)

// Kind discriminates token types.
type Kind uint8

const (
	// KindReference resolves to a dictionary sentence by id.
	KindReference Kind = 0
	// KindLiteral carries raw sentence bytes inline.
	KindLiteral Kind = 1
	// KindBlank is an empty line; only the terminator matters.
	KindBlank Kind = 2
)

// Header is the decoded stream header.
type Header struct {
	Version      uint16
	DictionaryID uuid.UUID
}

// Token is one decoded stream element.
type Token struct {
	Kind       Kind
	ID         int64  // KindReference only
	Text       []byte // KindLiteral only
	Terminator splitter.Terminator
}

func packTag(kind Kind, term splitter.Terminator) byte {
	return byte(kind)&0x0f | byte(term)<<4
}

func unpackTag(tag byte) (Kind, splitter.Terminator, bool) {
	kind := Kind(tag & 0x0f)
	term := splitter.Terminator(tag >> 4)
	if kind > KindBlank || term > splitter.CRLF {
		return 0, 0, false
	}
	return kind, term, true
}
