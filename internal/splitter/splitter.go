// Package splitter cuts a byte stream into sentence units while
// preserving the boundary metadata needed to reproduce the input
// byte-for-byte.
//
// Boundary rule: the stream is cut after every '\n'. When the byte
// before the '\n' is '\r', the terminator is CRLF and the CR is not
// part of the unit text; otherwise the terminator is LF. A final unit
// with no trailing '\n' carries no terminator. Blank lines are units
// with empty text. The splitter never normalizes terminators on its
// own; concatenating Text + Terminator.Bytes() over all units yields
// the original input exactly.
package splitter

import (
	"bufio"
	"bytes"
	"io"
)

// Terminator identifies the line boundary that followed a unit.
type Terminator uint8

const (
	// None marks the final unit of a stream that does not end in '\n'.
	None Terminator = iota
	// LF marks a unit terminated by a bare '\n'.
	LF
	// CRLF marks a unit terminated by "\r\n".
	CRLF
)

// Bytes returns the exact bytes the terminator contributes to the
// reconstructed stream.
func (t Terminator) Bytes() []byte {
	switch t {
	case LF:
		return []byte{'\n'}
	case CRLF:
		return []byte{'\r', '\n'}
	default:
		return nil
	}
}

// Unit is one splitter-delimited segment: the sentence text with its
// terminator held separately.
type Unit struct {
	Text       []byte
	Terminator Terminator
}

// Options configures splitting behavior.
type Options struct {
	// NormalizeEOL rewrites CRLF terminators to LF in the unit
	// stream. Round trips through a normalizing splitter reproduce
	// the normalized form, not the original bytes; callers opt in
	// explicitly and the choice is recorded alongside the dictionary.
	NormalizeEOL bool
}

// Splitter reads units from a stream incrementally.
type Splitter struct {
	br           *bufio.Reader
	normalizeEOL bool
	done         bool
}

// New creates a Splitter over r.
func New(r io.Reader, opts Options) *Splitter {
	return &Splitter{
		br:           bufio.NewReader(r),
		normalizeEOL: opts.NormalizeEOL,
	}
}

// Next returns the next unit. It returns io.EOF when the stream is
// exhausted; any other error is an underlying read failure.
func (s *Splitter) Next() (Unit, error) {
	if s.done {
		return Unit{}, io.EOF
	}

	line, err := s.br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return Unit{}, err
	}
	if err == io.EOF {
		s.done = true
		if len(line) == 0 {
			return Unit{}, io.EOF
		}
		// Final bytes without a trailing '\n'.
		return Unit{Text: line, Terminator: None}, nil
	}

	text := line[:len(line)-1]
	term := LF
	if n := len(text); n > 0 && text[n-1] == '\r' {
		text = text[:n-1]
		term = CRLF
	}
	if term == CRLF && s.normalizeEOL {
		term = LF
	}
	return Unit{Text: text, Terminator: term}, nil
}

// Split reads r to completion and returns all units in order.
func Split(r io.Reader, opts Options) ([]Unit, error) {
	s := New(r, opts)
	var units []Unit
	for {
		u, err := s.Next()
		if err == io.EOF {
			return units, nil
		}
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
}

// Join reassembles units into the byte stream they were split from.
func Join(units []Unit) []byte {
	var buf bytes.Buffer
	for _, u := range units {
		buf.Write(u.Text)
		buf.Write(u.Terminator.Bytes())
	}
	return buf.Bytes()
}
