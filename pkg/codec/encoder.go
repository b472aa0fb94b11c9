package codec

import (
	"encoding"
	"math/big"
	"reflect"
	"strconv"
	"unicode/utf8"
)

// Char is a single character. Runes are plain int32 values in Go, so a field
// that should travel as a character rather than a number uses this type.
type Char rune

// Encoder is the encode side of the visitor protocol. A value announces its
// shape by calling these methods in field order; every scalar becomes one
// field of the current row.
type Encoder interface {
	EncodeBool(v bool) error
	EncodeInt(v int64) error
	EncodeUint(v uint64) error
	EncodeFloat(v float64, bitSize int) error
	EncodeChar(r rune) error
	EncodeString(s string) error
	EncodeBytes(b []byte) error

	// EncodeNone writes an absent optional. EncodeSome writes a present one
	// by encoding v in place.
	EncodeNone() error
	EncodeSome(v any) error

	// BeginAggregate starts a struct, tuple or sequence of n elements (n may
	// be -1 when unknown). Elements are flattened into the current row.
	BeginAggregate(n int) (AggregateEncoder, error)

	// Shapes the row format cannot represent. Implementations must fail.
	EncodeUnit() error
	EncodeMap(n int) error
	EncodeVariant(typeName, variant string) error
	EncodeBigInt(v *big.Int) error
}

// AggregateEncoder receives the elements of a struct, tuple or sequence.
type AggregateEncoder interface {
	EncodeElement(v any) error
	End() error
}

// Marshaler is implemented by values that encode themselves.
type Marshaler interface {
	MarshalRSV(e Encoder) error
}

// FieldWriter is the sink a RowEncoder emits fields into.
type FieldWriter interface {
	WriteField(value []byte) error
	WriteNull() error
}

var (
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	charType          = reflect.TypeFor[Char]()
	bigIntType        = reflect.TypeFor[big.Int]()
)

// RowEncoder adapts the Encoder protocol onto a FieldWriter.
type RowEncoder struct {
	w       FieldWriter
	scratch []byte
	fields  int
}

// NewRowEncoder returns an encoder writing into w.
func NewRowEncoder(w FieldWriter) *RowEncoder {
	return &RowEncoder{w: w, scratch: make([]byte, 0, 32)}
}

// Fields returns the number of fields emitted so far.
func (e *RowEncoder) Fields() int {
	return e.fields
}

func (e *RowEncoder) field(b []byte) error {
	if err := e.w.WriteField(b); err != nil {
		return withField(err, e.fields)
	}
	e.fields++
	return nil
}

func (e *RowEncoder) EncodeBool(v bool) error {
	if v {
		return e.field([]byte("true"))
	}
	return e.field([]byte("false"))
}

func (e *RowEncoder) EncodeInt(v int64) error {
	e.scratch = strconv.AppendInt(e.scratch[:0], v, 10)
	return e.field(e.scratch)
}

func (e *RowEncoder) EncodeUint(v uint64) error {
	e.scratch = strconv.AppendUint(e.scratch[:0], v, 10)
	return e.field(e.scratch)
}

func (e *RowEncoder) EncodeFloat(v float64, bitSize int) error {
	e.scratch = strconv.AppendFloat(e.scratch[:0], v, 'g', -1, bitSize)
	return e.field(e.scratch)
}

func (e *RowEncoder) EncodeChar(r rune) error {
	if !utf8.ValidRune(r) {
		return withField(encodeError(ErrInvalidUTF8, "invalid character %U", r), e.fields)
	}
	e.scratch = utf8.AppendRune(e.scratch[:0], r)
	return e.field(e.scratch)
}

func (e *RowEncoder) EncodeString(s string) error {
	e.scratch = append(e.scratch[:0], s...)
	return e.field(e.scratch)
}

func (e *RowEncoder) EncodeBytes(b []byte) error {
	return e.field(b)
}

func (e *RowEncoder) EncodeNone() error {
	if err := e.w.WriteNull(); err != nil {
		return withField(err, e.fields)
	}
	e.fields++
	return nil
}

func (e *RowEncoder) EncodeSome(v any) error {
	return EncodeValue(e, v)
}

func (e *RowEncoder) BeginAggregate(int) (AggregateEncoder, error) {
	return rowAggregate{e}, nil
}

func (e *RowEncoder) EncodeUnit() error {
	return withField(unsupportedEncode("unit value"), e.fields)
}

func (e *RowEncoder) EncodeMap(int) error {
	return withField(unsupportedEncode("map"), e.fields)
}

func (e *RowEncoder) EncodeVariant(typeName, variant string) error {
	return withField(unsupportedEncode("enum variant "+typeName+"::"+variant), e.fields)
}

func (e *RowEncoder) EncodeBigInt(*big.Int) error {
	return withField(unsupportedEncode("128-bit integer"), e.fields)
}

// rowAggregate flattens aggregate elements into the enclosing row.
type rowAggregate struct {
	e *RowEncoder
}

func (a rowAggregate) EncodeElement(v any) error {
	return EncodeValue(a.e, v)
}

func (a rowAggregate) End() error {
	return nil
}

// EncodeValue drives e over v. Marshaler implementations announce their own
// shape; everything else is walked by reflection.
func EncodeValue(e Encoder, v any) error {
	if m, ok := v.(Marshaler); ok && !isNilPointer(v) {
		return m.MarshalRSV(e)
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k == reflect.Struct || k == reflect.Array {
		// Copy into addressable storage so members with pointer receivers
		// still find their MarshalRSV.
		c := reflect.New(rv.Type()).Elem()
		c.Set(rv)
		rv = c
	}
	return encodeReflect(e, rv)
}

// reflectValue hands a member to EncodeSome or EncodeElement without losing
// its addressability.
type reflectValue struct {
	v reflect.Value
}

func (r reflectValue) MarshalRSV(e Encoder) error {
	return encodeReflect(e, r.v)
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func encodeReflect(e Encoder, rv reflect.Value) error {
	if !rv.IsValid() {
		return e.EncodeNone()
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return e.EncodeNone()
		}
		if rv.Type().Implements(marshalerType) {
			return rv.Interface().(Marshaler).MarshalRSV(e)
		}
		if rv.Type().Elem() == bigIntType {
			return e.EncodeBigInt(rv.Interface().(*big.Int))
		}
		if rv.Type().Implements(textMarshalerType) && !rv.Type().Elem().Implements(textMarshalerType) {
			return encodeText(e, rv)
		}
		return e.EncodeSome(reflectValue{rv.Elem()})
	case reflect.Interface:
		if rv.IsNil() {
			return e.EncodeNone()
		}
		return EncodeValue(e, rv.Elem().Interface())
	}

	if rv.CanInterface() {
		if m, ok := rv.Interface().(Marshaler); ok {
			return m.MarshalRSV(e)
		}
	}
	if rv.CanAddr() && rv.Addr().Type().Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalRSV(e)
	}
	if rv.Type().Implements(textMarshalerType) {
		return encodeText(e, rv)
	}

	if rv.Type() == charType {
		return e.EncodeChar(rune(rv.Int()))
	}

	switch rv.Kind() {
	case reflect.Bool:
		return e.EncodeBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.EncodeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.EncodeUint(rv.Uint())
	case reflect.Float32:
		return e.EncodeFloat(rv.Float(), 32)
	case reflect.Float64:
		return e.EncodeFloat(rv.Float(), 64)
	case reflect.String:
		return e.EncodeString(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return e.EncodeBytes(rv.Bytes())
		}
		return encodeSequence(e, rv)
	case reflect.Array:
		return encodeSequence(e, rv)
	case reflect.Struct:
		if rv.Type() == bigIntType {
			v := rv.Interface().(big.Int)
			return e.EncodeBigInt(&v)
		}
		if len(structFields(rv.Type())) == 0 {
			return e.EncodeUnit()
		}
		return encodeStruct(e, rv)
	case reflect.Map:
		return e.EncodeMap(rv.Len())
	default:
		return unsupportedEncode(rv.Kind().String())
	}
}

func encodeText(e Encoder, rv reflect.Value) error {
	text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return encodeError(err, "marshal %s as text", rv.Type())
	}
	return e.EncodeBytes(text)
}

func encodeSequence(e Encoder, rv reflect.Value) error {
	agg, err := e.BeginAggregate(rv.Len())
	if err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := agg.EncodeElement(reflectValue{rv.Index(i)}); err != nil {
			return err
		}
	}
	return agg.End()
}

func encodeStruct(e Encoder, rv reflect.Value) error {
	fields := structFields(rv.Type())
	agg, err := e.BeginAggregate(len(fields))
	if err != nil {
		return err
	}
	for _, i := range fields {
		if err := agg.EncodeElement(reflectValue{rv.Field(i)}); err != nil {
			return err
		}
	}
	return agg.End()
}

// structFields returns the indexes of the exported fields of t that take part
// in a row, in declaration order. A field tagged `rsv:"-"` is skipped.
func structFields(t reflect.Type) []int {
	idx := make([]int, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("rsv") == "-" {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// RowBuilder assembles one row in memory. It implements FieldWriter.
type RowBuilder struct {
	buf []byte
}

// WriteField appends a non-null field.
func (b *RowBuilder) WriteField(value []byte) error {
	var err error
	b.buf, err = AppendField(b.buf, Field{Value: value})
	return err
}

// WriteNull appends a null field.
func (b *RowBuilder) WriteNull() error {
	b.buf = append(b.buf, NullByte, ValueTermByte)
	return nil
}

// EndRow appends the row terminator.
func (b *RowBuilder) EndRow() {
	b.buf = append(b.buf, RowTermByte)
}

// Bytes returns the assembled bytes. The slice aliases the builder.
func (b *RowBuilder) Bytes() []byte {
	return b.buf
}

// Len returns the number of assembled bytes.
func (b *RowBuilder) Len() int {
	return len(b.buf)
}

// Reset empties the builder, keeping its capacity.
func (b *RowBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Marshal encodes v as a single row, terminator included.
func Marshal(v any) ([]byte, error) {
	var b RowBuilder
	if err := EncodeValue(NewRowEncoder(&b), v); err != nil {
		return nil, err
	}
	b.EndRow()
	return b.Bytes(), nil
}
