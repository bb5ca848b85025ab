package ccache

import (
	"errors"
	"fmt"
)

// Decode errors. Every decode failure wraps one of these sentinels, so
// callers can classify with errors.Is while still seeing where in the
// input things went wrong.
var (
	// ErrUnexpectedEnd indicates the input ended before a field or a
	// declared length was satisfied.
	ErrUnexpectedEnd = errors.New("unexpected end of input")

	// ErrLengthTooLarge indicates a declared length or element count
	// exceeds the configured maximum.
	ErrLengthTooLarge = errors.New("length exceeds limit")

	// ErrInvalidUTF8 indicates a string field holds bytes that are not
	// valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in string")

	// ErrInvalidPreamble indicates the protocol number byte is not 5.
	ErrInvalidPreamble = errors.New("invalid protocol version")

	// ErrUnsupportedVersion indicates a format version other than 3
	// or 4. Versions 1 and 2 used native byte order and are rejected,
	// never guessed at.
	ErrUnsupportedVersion = errors.New("unsupported cache version")

	// ErrInvalidHeaderTag indicates a version-4 header that does not
	// start with a well-formed deltatime tag.
	ErrInvalidHeaderTag = errors.New("invalid header tag")

	// ErrArrayCountMismatch indicates a decoded array's element count
	// diverged from its declared count.
	ErrArrayCountMismatch = errors.New("array count mismatch")

	// ErrTrailingData indicates a credential sequence ended in the
	// middle of a record.
	ErrTrailingData = errors.New("truncated record at end of credential sequence")
)

// DecodeError reports a decode failure with the wire field being read
// and the byte offset it was read at. A cache that fails to decode is
// rejected whole; there is no partial-result recovery.
type DecodeError struct {
	Field  string
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ccache: %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
