package binjson

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedStream is matched by every decode failure.
	ErrMalformedStream = errors.New("binjson: malformed stream")

	ErrInvalidNumber                    = errors.New("binjson: NaN cannot be encoded")
	ErrDictionaryEntryWithoutDictionary = errors.New("binjson: dictionary entry without a dictionary")
	ErrUnknownTag                       = errors.New("binjson: unknown tag")
	ErrTruncatedStream                  = errors.New("binjson: truncated stream")
	ErrUnterminatedContainer            = errors.New("binjson: unterminated container")
	ErrDictionaryIndex                  = errors.New("binjson: dictionary index out of range")
	ErrInvalidKey                       = errors.New("binjson: object key is not a string")
	ErrNumericOverflow                  = errors.New("binjson: numeric overflow")
	ErrTrailingBytes                    = errors.New("binjson: trailing bytes after value")
	ErrUnexpectedEnd                    = errors.New("binjson: End where a value is required")
	ErrTooDeep                          = errors.New("binjson: nesting too deep")
	ErrPayloadTooLarge                  = errors.New("binjson: payload too large")
)

// DecodeError reports where decoding stopped. It matches both
// ErrMalformedStream and the specific cause with errors.Is.
type DecodeError struct {
	Offset int // offset of the tag being decoded
	Tag    Tag
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("binjson: decode %s at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformedStream, e.Err}
}

// EncodeError reports the path of the value that could not be encoded,
// e.g. `$.items[3]`.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("binjson: encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// atPath prefixes the path of an EncodeError while unwinding.
func atPath(err error, seg string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.Path = seg + ee.Path
		return ee
	}
	return &EncodeError{Path: seg, Err: err}
}
