package core

// streaming.go cleans up delimited text on its way into encoding/csv.
//
// Spreadsheet exports from Windows often carry a UTF-8 BOM and the odd byte
// in a legacy code page. Both are fixed while streaming, in constant memory:
//
//   - a leading BOM (0xEF 0xBB 0xBF) is dropped
//   - invalid UTF-8 bytes become '?' (1 byte, so offsets never grow)
//
// countingReader sits below decompression so logged byte counts match the
// upload size.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const sanitizeChunk = 32 * 1024

// newTextReader strips a leading BOM from r and sanitizes what follows.
func newTextReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sanitizeChunk)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{src: br}
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte rune
// split across two source reads is carried over rather than replaced.
type utf8Sanitizer struct {
	src  io.Reader
	raw  []byte // scratch buffer for source reads
	tail []byte // incomplete rune from the previous read
	out  []byte // sanitized bytes not yet handed out
	err  error  // sticky source error, reported once out drains
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *utf8Sanitizer) fill() {
	if s.raw == nil {
		s.raw = make([]byte, sanitizeChunk)
	}
	n, err := s.src.Read(s.raw)
	s.err = err

	data := append(s.tail, s.raw[:n]...)
	atEOF := err != nil

	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		c := data[i]
		if c < utf8.RuneSelf {
			out = append(out, c)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[i:i+size]...)
		}
		i += size
	}

	s.tail = append(s.tail[:0:0], data[i:]...)
	s.out = out
}

// countingReader tracks bytes read from the upload.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
