package codec

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind categorizes a codec failure.
type Kind string

const (
	KindIO     Kind = "io"     // underlying sink or source failed
	KindDecode Kind = "decode" // malformed input or a target the decoder cannot fill
	KindEncode Kind = "encode" // a value shape the encoder does not support
)

// Kind sentinels for errors.Is classification.
var (
	ErrIO     = &Error{Kind: KindIO}
	ErrDecode = &Error{Kind: KindDecode}
	ErrEncode = &Error{Kind: KindEncode}
)

// Causes carried by *Error.
var (
	ErrUnsupported      = errors.New("unsupported shape")
	ErrMissingValueTerm = errors.New("missing value terminator")
	ErrMissingRowTerm   = errors.New("missing row terminator")
	ErrNullNotAllowed   = errors.New("null in non-optional position")
	ErrBadNullMarker    = errors.New("null marker not followed by value terminator")
	ErrInvalidUTF8      = errors.New("invalid UTF-8")
	ErrParse            = errors.New("scalar parse failure")
	ErrSentinelInField  = errors.New("reserved byte in field payload")
	ErrTrailingFields   = errors.New("row has unread fields")
	ErrMissingFields    = errors.New("row ended before all fields were read")
	ErrInvalidTarget    = errors.New("decode target must be a non-nil pointer")
)

// Error is the single error type returned by the codec.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
	// Field is the zero-based field index within the row, or -1 when unknown.
	Field int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("rsv: [")
	b.WriteString(string(e.Kind))
	b.WriteByte(']')

	if e.Field >= 0 {
		b.WriteString(" field ")
		b.WriteString(strconv.Itoa(e.Field))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// IOError wraps a sink or source failure. nil and io.EOF pass through
// untouched so callers can keep comparing against io.EOF.
func IOError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: KindIO, Cause: err, Field: -1}
}

// IsIO reports whether err is an IO failure.
func IsIO(err error) bool { return errors.Is(err, ErrIO) }

// IsDecode reports whether err is a decode failure.
func IsDecode(err error) bool { return errors.Is(err, ErrDecode) }

// IsEncode reports whether err is an encode failure.
func IsEncode(err error) bool { return errors.Is(err, ErrEncode) }

func decodeError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindDecode, Cause: cause, Detail: fmt.Sprintf(format, args...), Field: -1}
}

func encodeError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindEncode, Cause: cause, Detail: fmt.Sprintf(format, args...), Field: -1}
}

func unsupportedEncode(shape string) *Error {
	return encodeError(ErrUnsupported, "%s is not supported", shape)
}

func unsupportedDecode(shape string) *Error {
	return decodeError(ErrUnsupported, "%s is not supported", shape)
}

// withField stamps a field index on a codec error that does not carry one.
func withField(err error, field int) error {
	var ce *Error
	if errors.As(err, &ce) && ce.Field < 0 {
		ce.Field = field
	}
	return err
}
