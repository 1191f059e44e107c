// Package codec implements the compact binary cache format of a repository:
// varint integers, length-prefixed UTF-8 strings, and dictionary tables for
// configurations, source files and namespace resolvers that items refer to
// by index.
package codec

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Writer encodes primitives to an underlying stream. The first write error
// is sticky and returned by Flush.
type Writer struct {
	w       *bufio.Writer
	err     error
	n       int64
	scratch [binary.MaxVarintLen64]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64<<10)}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.scratch[0] = b
	w.write(w.scratch[:1])
}

// Uvarint writes an unsigned integer, 7 bits per byte.
func (w *Writer) Uvarint(v uint64) {
	n := binary.PutUvarint(w.scratch[:], v)
	w.write(w.scratch[:n])
}

// Varint writes a signed integer in zig-zag form.
func (w *Writer) Varint(v int64) {
	n := binary.PutVarint(w.scratch[:], v)
	w.write(w.scratch[:n])
}

// Int writes a non-negative int.
func (w *Writer) Int(v int) { w.Uvarint(uint64(v)) }

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.Uvarint(uint64(len(s)))
	if w.err != nil {
		return
	}
	n, err := w.w.WriteString(s)
	w.n += int64(n)
	w.err = err
}

// Bytes writes raw bytes with no length prefix.
func (w *Writer) Bytes(p []byte) { w.write(p) }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int64 { return w.n }

// Flush flushes buffered data and returns the first error seen.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// StringCache interns decoded strings so repeated values share storage.
type StringCache interface {
	Intern(s string) string
}

// MapStringCache is a StringCache backed by a map. It is not safe for
// concurrent use.
type MapStringCache map[string]string

// Intern returns the canonical instance of s.
func (m MapStringCache) Intern(s string) string {
	if c, ok := m[s]; ok {
		return c
	}
	m[s] = s
	return s
}

// Reader decodes primitives from an in-memory buffer. It never reads past
// the end of the buffer; every violation is reported as a *FormatError.
type Reader struct {
	buf     []byte
	off     int
	strings StringCache
}

// NewReader reads from buf. cache may be nil.
func NewReader(buf []byte, cache StringCache) *Reader {
	return &Reader{buf: buf, strings: cache}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Byte reads one byte.
func (r *Reader) Byte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, r.truncated("byte")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Uvarint reads an unsigned varint.
func (r *Reader) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.off:])
	switch {
	case n == 0:
		return 0, r.truncated("varint")
	case n < 0:
		return 0, r.malformed("varint overflows 64 bits")
	}
	r.off += n
	return v, nil
}

// Varint reads a signed varint.
func (r *Reader) Varint() (int64, error) {
	v, n := binary.Varint(r.buf[r.off:])
	switch {
	case n == 0:
		return 0, r.truncated("varint")
	case n < 0:
		return 0, r.malformed("varint overflows 64 bits")
	}
	r.off += n
	return v, nil
}

// Int reads a non-negative int that fits in 32 bits.
func (r *Reader) Int() (int, error) {
	start := r.off
	v, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 {
		r.off = start
		return 0, r.malformed("integer out of range")
	}
	return int(v), nil
}

// Count reads an element count. Every element occupies at least one byte,
// so a count larger than the unread remainder is rejected before any
// allocation happens.
func (r *Reader) Count() (int, error) {
	start := r.off
	n, err := r.Int()
	if err != nil {
		return 0, err
	}
	if n > r.Remaining() {
		r.off = start
		return 0, r.truncated("element count")
	}
	return n, nil
}

// Index reads a table index and checks it against the table size.
func (r *Reader) Index(size int, table string) (int, error) {
	start := r.off
	i, err := r.Int()
	if err != nil {
		return 0, err
	}
	if i >= size {
		r.off = start
		return 0, r.malformed(table + " index out of range")
	}
	return i, nil
}

// String reads a length-prefixed string.
func (r *Reader) String() (string, error) {
	start := r.off
	n, err := r.Int()
	if err != nil {
		return "", err
	}
	if n > r.Remaining() {
		r.off = start
		return "", r.truncated("string")
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	if r.strings != nil {
		s = r.strings.Intern(s)
	}
	return s, nil
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.truncated("bytes")
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *Reader) truncated(what string) error {
	return &FormatError{Offset: r.off, Reason: "truncated " + what, Err: ErrTruncated}
}

func (r *Reader) malformed(reason string) error {
	return &FormatError{Offset: r.off, Reason: reason}
}
