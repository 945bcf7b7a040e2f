package core

// streaming.go provides the reader chain a source file passes through
// before CSV parsing:
//
//   - CountingReader: tracks raw bytes read from the file
//   - transform.Reader: decodes non-UTF-8 encodings (skipped for UTF-8)
//   - BOMSkippingReader: removes a UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Use NewSourceReader to build the chain in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// UTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes with
// '?' on the fly. A multi-byte rune split across reads is held back until
// the next read completes it. Replaced counts the substituted bytes.
type UTF8Sanitizer struct {
	reader   io.Reader
	pending  []byte
	Replaced int64
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isAllASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

// isAllASCII returns true if all bytes are ASCII (< 128).
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// out. Unless atEOF, an incomplete trailing rune is moved to pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if trailing := incompleteTrailingBytes(data); trailing > 0 {
				s.pending = append(s.pending, data[len(data)-trailing:]...)
				return len(data) - trailing
			}
		}
		return len(data)
	}

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && isIncompleteRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			// One byte out for one byte in keeps the rewrite in place.
			data[write] = '?'
			write++
			read++
			s.Replaced++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that start a multi-byte UTF-8 sequence without completing it.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func isIncompleteRune(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return runeLen(data[0]) > len(data)
}

// BOMSkippingReader wraps an io.Reader and drops a leading UTF-8 BOM.
type BOMSkippingReader struct {
	reader  *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.reader.Peek(len(bomUTF8))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, bomUTF8) {
			if _, err := r.reader.Discard(len(bomUTF8)); err != nil {
				return 0, err
			}
		}
	}
	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// NewSourceReader builds the decode chain for a file in encoding enc.
// The returned counter reports raw bytes consumed from r; the returned
// sanitizer reports how many bytes it replaced.
func NewSourceReader(r io.Reader, enc DetectedEncoding) (*UTF8Sanitizer, *CountingReader) {
	counter := NewCountingReader(r)

	var decoded io.Reader = counter
	if enc.Encoding != nil && !enc.IsUTF8() {
		decoded = transform.NewReader(counter, enc.Encoding.NewDecoder())
	}

	return NewUTF8Sanitizer(NewBOMSkippingReader(decoded)), counter
}
