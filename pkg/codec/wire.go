package codec

import (
	"bytes"
	"unicode/utf8"
)

// Sentinel bytes. None of them can occur in well-formed UTF-8.
const (
	NullByte      byte = 0xFE // marks a null field, always followed by ValueTermByte
	RowTermByte   byte = 0xFD // terminates every row
	ValueTermByte byte = 0xFF // terminates every field
)

// Field is one value of a row. The zero Field is the empty string, which is
// distinct from a null field.
type Field struct {
	Value []byte
	Null  bool
}

// String returns a field holding s.
func String(s string) Field {
	return Field{Value: []byte(s)}
}

// Bytes returns a field holding b verbatim.
func Bytes(b []byte) Field {
	return Field{Value: b}
}

// Null returns a null field.
func Null() Field {
	return Field{Null: true}
}

// Strings converts values into non-null fields.
func Strings(values ...string) []Field {
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = String(v)
	}
	return fields
}

// IsNull reports whether the field is null.
func (f Field) IsNull() bool {
	return f.Null
}

// String returns the field payload. Null fields return the empty string.
func (f Field) String() string {
	return string(f.Value)
}

// containsSentinel reports whether b holds any of the reserved bytes.
func containsSentinel(b []byte) bool {
	for _, c := range b {
		if c >= RowTermByte {
			return true
		}
	}
	return false
}

// AppendField appends the wire form of f to dst.
func AppendField(dst []byte, f Field) ([]byte, error) {
	if f.Null {
		return append(dst, NullByte, ValueTermByte), nil
	}
	if containsSentinel(f.Value) {
		return dst, encodeError(ErrSentinelInField, "field payload %q contains a reserved byte", preview(f.Value))
	}
	dst = append(dst, f.Value...)
	return append(dst, ValueTermByte), nil
}

// AppendRow appends a complete row, including its terminator, to dst. On
// error dst is returned unchanged.
func AppendRow(dst []byte, fields []Field) ([]byte, error) {
	start := len(dst)
	for i, f := range fields {
		var err error
		dst, err = AppendField(dst, f)
		if err != nil {
			return dst[:start], withField(err, i)
		}
	}
	return append(dst, RowTermByte), nil
}

// SplitRow splits one raw row, as returned by a row reader, into its fields.
// The row terminator is optional only in the sense that its absence is
// reported as ErrMissingRowTerm once every complete field has been read.
func SplitRow(raw []byte) ([]Field, error) {
	d := NewRowDecoder(raw)
	var fields []Field
	for {
		more, err := d.More()
		if err != nil {
			return nil, err
		}
		if !more {
			return fields, nil
		}
		value, null, err := d.next()
		if err != nil {
			return nil, err
		}
		if null {
			fields = append(fields, Null())
			continue
		}
		fields = append(fields, Field{Value: bytes.Clone(value)})
	}
}

// ValidateRow checks that raw holds exactly one well-formed row whose
// fields are all null or valid UTF-8.
func ValidateRow(raw []byte) error {
	var fields []*string
	return UnmarshalOptions(raw, &fields, DecodeOptions{Strict: true})
}

// validUTF8 guards field payloads on the decode side.
func validUTF8(b []byte) bool {
	return utf8.Valid(b)
}

func preview(b []byte) []byte {
	if len(b) > 32 {
		return b[:32]
	}
	return b
}
