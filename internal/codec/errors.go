package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated marks a stream that ended before a complete value.
	ErrTruncated = errors.New("codec: unexpected end of stream")
	// ErrHeaderMismatch marks a header whose provenance differs from the
	// expected one.
	ErrHeaderMismatch = errors.New("codec: cache header mismatch")
)

// FormatError describes a malformed, truncated or mismatching byte stream.
type FormatError struct {
	Offset int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("codec: malformed stream at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }
