// Package codec implements the RSV (Rows of String Values) wire format and the
// visitor protocol that maps Go values onto it.
//
// # Wire Format
//
// A stream is a sequence of rows. A row is a sequence of fields. There are no
// length prefixes, no escaping and no schema; framing relies on three bytes
// that never occur in well-formed UTF-8:
//
//	0xFF  value terminator, follows every field
//	0xFE  null marker, always written as 0xFE 0xFF
//	0xFD  row terminator, follows every row
//
// Grammar:
//
//	stream := row*
//	row    := field* 0xFD
//	field  := (0xFE 0xFF) | (utf8-byte* 0xFF)
//
// An empty field (a bare 0xFF) is the empty string and is distinct from null.
// A row with no fields is a bare 0xFD. An empty stream holds zero rows.
//
// # Scalars
//
// Every scalar travels as text:
//   - bool: "true" or "false"
//   - integers of every width: base-10
//   - floats: the shortest decimal that parses back to the same value
//   - Char: the UTF-8 encoding of the rune
//   - string and []byte: verbatim
//   - nil pointer or nil interface: null
//
// Field names never reach the wire. Structs, arrays and slices are flattened
// into the current row in declaration order, so nested aggregates share one
// row and a slice member swallows every remaining field.
//
// # Visitor Protocol
//
// Encoding walks a value and calls an Encoder once per scalar; decoding asks a
// Decoder for one scalar at a time and uses More to find the end of an
// aggregate. Types that implement Marshaler or Unmarshaler drive the protocol
// themselves; everything else is handled by reflection:
//
//	type Reading struct {
//	    Sensor string
//	    Value  float64
//	    Note   *string
//	}
//
//	row, err := codec.Marshal(Reading{Sensor: "t1", Value: 21.5})
//	if err != nil {
//	    return err
//	}
//
//	var r Reading
//	if err := codec.Unmarshal(row, &r); err != nil {
//	    return err
//	}
//
// Maps, enum variants, unit values (struct{}) and 128-bit integers
// (math/big.Int) are outside the format and fail on both sides.
//
// # Error Handling
//
// Every failure is an *Error carrying a Kind:
//   - KindIO: the underlying sink or source failed
//   - KindDecode: malformed framing, invalid UTF-8, a null where a value is
//     required, a scalar that does not parse, or an unsupported target
//   - KindEncode: an unsupported value shape, or a payload holding a
//     reserved byte
//
// Use errors.Is with ErrIO, ErrDecode or ErrEncode to classify an error, and
// with the cause sentinels (ErrMissingValueTerm, ErrNullNotAllowed, ...) to
// inspect it. Nothing in the codec retries.
//
// # Strictness
//
// Decoding is tolerant by default: a struct stops reading when the row ends,
// leaving later members at their zero values, and fields left over after the
// struct is filled are ignored. DecodeOptions.Strict turns both cases into
// decode errors.
package codec
