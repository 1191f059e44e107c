package codec

import "bytes"

// Magic opens every cache file.
var Magic = []byte{0x89, 'R', 'R', 'C', '\r', '\n', 0x1a, '\n'}

// FormatVersion is bumped whenever the body layout or the resource type
// enumeration changes.
const FormatVersion = "1"

// Header is the provenance of a cache file. A cache is only used when every
// field equals the expected value byte for byte.
type Header struct {
	// SourceLocation is the archive or directory the items came from.
	SourceLocation string
	// ContentVersion changes whenever the source data changes.
	ContentVersion string
	// CodeVersion changes whenever the software that wrote the cache changes.
	CodeVersion string
}

// Bytes returns the exact header encoding: magic, format version, then the
// three provenance strings.
func (h Header) Bytes() []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	h.write(w)
	_ = w.Flush()
	return buf.Bytes()
}

func (h Header) write(w *Writer) {
	w.Bytes(Magic)
	w.String(FormatVersion)
	w.String(h.SourceLocation)
	w.String(h.ContentVersion)
	w.String(h.CodeVersion)
}

// ExpectHeader consumes the header and compares it against want. Any
// difference, including a short stream, is reported as ErrHeaderMismatch;
// nothing past the header is read in that case.
func (r *Reader) ExpectHeader(want Header) error {
	expected := want.Bytes()
	if r.Remaining() < len(expected) {
		return &FormatError{Offset: r.off, Reason: "short header", Err: ErrHeaderMismatch}
	}
	got := r.buf[r.off : r.off+len(expected)]
	if !bytes.Equal(got, expected) {
		return &FormatError{Offset: r.off + mismatchAt(got, expected), Reason: "header mismatch", Err: ErrHeaderMismatch}
	}
	r.off += len(expected)
	return nil
}

// ReadHeader decodes a header without comparing it, for diagnostics.
func (r *Reader) ReadHeader() (Header, string, error) {
	m, err := r.Bytes(len(Magic))
	if err != nil {
		return Header{}, "", err
	}
	if !bytes.Equal(m, Magic) {
		return Header{}, "", &FormatError{Offset: 0, Reason: "bad magic", Err: ErrHeaderMismatch}
	}
	var fields [4]string
	for i := range fields {
		if fields[i], err = r.String(); err != nil {
			return Header{}, "", err
		}
	}
	return Header{SourceLocation: fields[1], ContentVersion: fields[2], CodeVersion: fields[3]}, fields[0], nil
}

func mismatchAt(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return len(a)
}
