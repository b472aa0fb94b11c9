package codec

import (
	"bytes"
	"encoding"
	"math/big"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Decoder is the decode side of the visitor protocol. Each scalar method
// consumes exactly one field of the current row.
type Decoder interface {
	DecodeBool() (bool, error)
	DecodeInt(bitSize int) (int64, error)
	DecodeUint(bitSize int) (uint64, error)
	DecodeFloat(bitSize int) (float64, error)
	DecodeChar() (rune, error)
	DecodeString() (string, error)
	DecodeBytes() ([]byte, error)

	// DecodeOptional reports whether the next field is present. An absent
	// (null) field is consumed; a present one is left for the next call.
	DecodeOptional() (bool, error)

	// More reports whether the row holds another field for the aggregate
	// being decoded.
	More() (bool, error)

	// Shapes the row format cannot represent. Implementations must fail.
	DecodeUnit() error
	DecodeMap() error
	DecodeVariant(typeName string) error
	DecodeBigInt() (*big.Int, error)
}

// Unmarshaler is implemented by values that decode themselves.
type Unmarshaler interface {
	UnmarshalRSV(d Decoder) error
}

// DecodeOptions controls how strictly a row must match its target.
type DecodeOptions struct {
	// Strict rejects rows with fewer fields than a struct or array target
	// and rows with fields left over once the target is filled.
	Strict bool
}

var (
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// RowDecoder is a cursor over one raw row. The raw row normally ends with
// RowTermByte; every decode call advances past exactly one field.
type RowDecoder struct {
	buf   []byte
	field int // index of the next field
	last  int // index of the most recently consumed field
	opts  DecodeOptions
}

// NewRowDecoder returns a tolerant decoder over raw.
func NewRowDecoder(raw []byte) *RowDecoder {
	return &RowDecoder{buf: raw}
}

// NewRowDecoderOptions returns a decoder over raw using opts.
func NewRowDecoderOptions(raw []byte, opts DecodeOptions) *RowDecoder {
	return &RowDecoder{buf: raw, opts: opts}
}

// Field returns the index of the next field to be consumed.
func (d *RowDecoder) Field() int {
	return d.field
}

// Finish checks that the cursor sits on the row terminator.
func (d *RowDecoder) Finish() error {
	if len(d.buf) == 0 {
		return d.fail(ErrMissingRowTerm, "row is not terminated")
	}
	if d.buf[0] != RowTermByte || len(d.buf) > 1 {
		return d.fail(ErrTrailingFields, "%d unread bytes after the last decoded field", len(d.buf)-1)
	}
	return nil
}

func (d *RowDecoder) fail(cause error, format string, args ...any) error {
	return d.failAt(d.field, cause, format, args...)
}

func (d *RowDecoder) failAt(field int, cause error, format string, args ...any) error {
	err := decodeError(cause, format, args...)
	err.Field = field
	return err
}

func (d *RowDecoder) strict() bool {
	return d.opts.Strict
}

// next consumes one field. null reports a null field.
func (d *RowDecoder) next() (value []byte, null bool, err error) {
	if len(d.buf) == 0 {
		return nil, false, d.fail(ErrMissingRowTerm, "row ended without a terminator")
	}

	switch d.buf[0] {
	case RowTermByte:
		return nil, false, d.fail(ErrMissingFields, "no field left in row")
	case NullByte:
		if len(d.buf) < 2 || d.buf[1] != ValueTermByte {
			return nil, false, d.fail(ErrBadNullMarker, "expected value terminator after null marker")
		}
		d.buf = d.buf[2:]
		d.last = d.field
		d.field++
		return nil, true, nil
	}

	i := bytes.IndexByte(d.buf, ValueTermByte)
	if i < 0 || bytes.IndexByte(d.buf[:i], RowTermByte) >= 0 {
		return nil, false, d.fail(ErrMissingValueTerm, "unable to find value terminator in row")
	}

	value = d.buf[:i]
	d.buf = d.buf[i+1:]
	d.last = d.field
	d.field++
	return value, false, nil
}

// nextString consumes one non-null field holding UTF-8 text.
func (d *RowDecoder) nextString() (string, error) {
	value, null, err := d.next()
	if err != nil {
		return "", err
	}
	if null {
		return "", d.failAt(d.last, ErrNullNotAllowed, "got null but expected a value")
	}
	if !validUTF8(value) {
		return "", d.failAt(d.last, ErrInvalidUTF8, "field %x is not valid UTF-8", preview(value))
	}
	return string(value), nil
}

func (d *RowDecoder) parseError(kind, s string, cause error) error {
	return d.failAt(d.last, ErrParse, "cannot parse %q as %s: %v", s, kind, cause)
}

func (d *RowDecoder) DecodeBool() (bool, error) {
	s, err := d.nextString()
	if err != nil {
		return false, err
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, d.parseError("bool", s, strconv.ErrSyntax)
}

func (d *RowDecoder) DecodeInt(bitSize int) (int64, error) {
	s, err := d.nextString()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, d.parseError("int"+strconv.Itoa(bitSize), s, err)
	}
	return v, nil
}

func (d *RowDecoder) DecodeUint(bitSize int) (uint64, error) {
	s, err := d.nextString()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, d.parseError("uint"+strconv.Itoa(bitSize), s, err)
	}
	return v, nil
}

func (d *RowDecoder) DecodeFloat(bitSize int) (float64, error) {
	s, err := d.nextString()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, bitSize)
	if err != nil {
		return 0, d.parseError("float"+strconv.Itoa(bitSize), s, err)
	}
	return v, nil
}

func (d *RowDecoder) DecodeChar() (rune, error) {
	s, err := d.nextString()
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, d.parseError("char", s, strconv.ErrSyntax)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func (d *RowDecoder) DecodeString() (string, error) {
	return d.nextString()
}

func (d *RowDecoder) DecodeBytes() ([]byte, error) {
	return nil, d.fail(ErrUnsupported, "byte sequence targets are not supported")
}

func (d *RowDecoder) DecodeOptional() (bool, error) {
	if len(d.buf) == 0 {
		return false, d.fail(ErrMissingRowTerm, "row ended without a terminator")
	}
	if d.buf[0] != NullByte {
		return true, nil
	}
	if _, _, err := d.next(); err != nil {
		return false, err
	}
	return false, nil
}

func (d *RowDecoder) More() (bool, error) {
	if len(d.buf) == 0 {
		return false, d.fail(ErrMissingRowTerm, "row ended without a terminator")
	}
	return d.buf[0] != RowTermByte, nil
}

func (d *RowDecoder) DecodeUnit() error {
	return d.fail(ErrUnsupported, "unit targets are not supported")
}

func (d *RowDecoder) DecodeMap() error {
	return d.fail(ErrUnsupported, "map targets are not supported")
}

func (d *RowDecoder) DecodeVariant(typeName string) error {
	return d.fail(ErrUnsupported, "enum %s is not supported", typeName)
}

func (d *RowDecoder) DecodeBigInt() (*big.Int, error) {
	return nil, d.fail(ErrUnsupported, "128-bit integers are not supported")
}

// Unmarshal decodes one raw row into v, which must be a non-nil pointer.
func Unmarshal(row []byte, v any) error {
	return UnmarshalOptions(row, v, DecodeOptions{})
}

// UnmarshalOptions is Unmarshal with explicit options.
func UnmarshalOptions(row []byte, v any, opts DecodeOptions) error {
	d := NewRowDecoderOptions(row, opts)
	if err := DecodeValue(d, v); err != nil {
		return err
	}
	if opts.Strict {
		return d.Finish()
	}
	return nil
}

// DecodeValue drives d into v, which must be a non-nil pointer.
func DecodeValue(d Decoder, v any) error {
	if u, ok := v.(Unmarshaler); ok && !isNilPointer(v) {
		return u.UnmarshalRSV(d)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return decodeError(ErrInvalidTarget, "cannot decode into %T", v)
	}
	return decodeReflect(d, rv.Elem())
}

type strictDecoder interface {
	strict() bool
}

func isStrict(d Decoder) bool {
	s, ok := d.(strictDecoder)
	return ok && s.strict()
}

func decodeReflect(d Decoder, rv reflect.Value) error {
	if rv.Kind() == reflect.Pointer {
		present, err := d.DecodeOptional()
		if err != nil {
			return err
		}
		if !present {
			rv.SetZero()
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeReflect(d, rv.Elem())
	}

	if rv.Type() == bigIntType {
		_, err := d.DecodeBigInt()
		return err
	}

	if rv.CanAddr() {
		pt := rv.Addr().Type()
		if pt.Implements(unmarshalerType) {
			return rv.Addr().Interface().(Unmarshaler).UnmarshalRSV(d)
		}
		if pt.Implements(textUnmarshalerType) {
			s, err := d.DecodeString()
			if err != nil {
				return err
			}
			if err := rv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return decodeError(ErrParse, "cannot parse %q as %s: %v", s, rv.Type(), err)
			}
			return nil
		}
	}

	if rv.Type() == charType {
		r, err := d.DecodeChar()
		if err != nil {
			return err
		}
		rv.SetInt(int64(r))
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		v, err := d.DecodeBool()
		if err != nil {
			return err
		}
		rv.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := d.DecodeInt(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v, err := d.DecodeUint(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := d.DecodeFloat(rv.Type().Bits())
		if err != nil {
			return err
		}
		rv.SetFloat(v)
	case reflect.String:
		v, err := d.DecodeString()
		if err != nil {
			return err
		}
		rv.SetString(v)
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			_, err := d.DecodeBytes()
			return err
		}
		return decodeSlice(d, rv)
	case reflect.Array:
		return decodeArray(d, rv)
	case reflect.Struct:
		if len(structFields(rv.Type())) == 0 {
			return d.DecodeUnit()
		}
		return decodeStruct(d, rv)
	case reflect.Map:
		return d.DecodeMap()
	default:
		return unsupportedDecode(rv.Type().String() + " target")
	}
	return nil
}

func decodeSlice(d Decoder, rv reflect.Value) error {
	out := reflect.MakeSlice(rv.Type(), 0, 4)
	for {
		more, err := d.More()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		out = reflect.Append(out, reflect.Zero(rv.Type().Elem()))
		if err := decodeReflect(d, out.Index(out.Len()-1)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func decodeArray(d Decoder, rv reflect.Value) error {
	for i := 0; i < rv.Len(); i++ {
		more, err := d.More()
		if err != nil {
			return err
		}
		if !more {
			return missingFields(d, rv.Type(), i)
		}
		if err := decodeReflect(d, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func decodeStruct(d Decoder, rv reflect.Value) error {
	for n, i := range structFields(rv.Type()) {
		more, err := d.More()
		if err != nil {
			return err
		}
		if !more {
			return missingFields(d, rv.Type(), n)
		}
		if err := decodeReflect(d, rv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// missingFields is nil for tolerant decoders; the remaining members keep
// their zero values.
func missingFields(d Decoder, t reflect.Type, got int) error {
	if !isStrict(d) {
		return nil
	}
	err := decodeError(ErrMissingFields, "row ended after %d members of %s", got, t)
	if rd, ok := d.(*RowDecoder); ok {
		err.Field = rd.field
	}
	return err
}
