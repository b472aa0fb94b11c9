package codec

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

// row builds the wire form of a row from plain strings; "\x00null" marks a
// null field.
func row(values ...string) []byte {
	var b []byte
	for _, v := range values {
		if v == "\x00null" {
			b = append(b, NullByte, ValueTermByte)
			continue
		}
		b = append(b, v...)
		b = append(b, ValueTermByte)
	}
	return append(b, RowTermByte)
}

const null = "\x00null"

type reading struct {
	Sensor string
	Value  float64
	Note   *string
	Count  uint16
}

type point struct {
	X, Y int
}

type withSkipped struct {
	A      string
	Hidden string `rsv:"-"`
	b      string
	C      int8
}

type colour int

func (c colour) MarshalRSV(e Encoder) error {
	names := []string{"red", "green", "blue"}
	return e.EncodeString(names[c])
}

type shape struct{}

func (shape) MarshalRSV(e Encoder) error {
	return e.EncodeVariant("Shape", "Circle")
}

// version travels as a single "major.minor" field through pointer receivers.
type version struct {
	Major, Minor int
}

func (v *version) MarshalRSV(e Encoder) error {
	return e.EncodeString(strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor))
}

func (v *version) UnmarshalRSV(d Decoder) error {
	s, err := d.DecodeString()
	if err != nil {
		return err
	}
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return errors.New("bad version " + s)
	}
	if v.Major, err = strconv.Atoi(major); err != nil {
		return err
	}
	v.Minor, err = strconv.Atoi(minor)
	return err
}

type release struct {
	Name    string
	Version version
	Pinned  *version
	Deps    []version
}

func strPtr(s string) *string { return &s }

func TestMarshal_Scalars(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  []byte
	}{
		{"bool true", true, row("true")},
		{"bool false", false, row("false")},
		{"int8", int8(-128), row("-128")},
		{"int16", int16(32767), row("32767")},
		{"int32", int32(-7), row("-7")},
		{"int64", int64(math.MinInt64), row("-9223372036854775808")},
		{"int", 42, row("42")},
		{"uint8", uint8(255), row("255")},
		{"uint16", uint16(65535), row("65535")},
		{"uint32", uint32(1), row("1")},
		{"uint64", uint64(math.MaxUint64), row("18446744073709551615")},
		{"float32", float32(3.14), row("3.14")},
		{"float64", 3.14, row("3.14")},
		{"float64 large", 1e21, row("1e+21")},
		{"char ascii", Char('x'), row("x")},
		{"char multibyte", Char('é'), row("é")},
		{"string", "Hello Stenway!", row("Hello Stenway!")},
		{"empty string", "", row("")},
		{"bytes", []byte("raw"), row("raw")},
		{"nil pointer", (*string)(nil), row(null)},
		{"pointer", strPtr("here"), row("here")},
		{"nil interface", nil, row(null)},
		{"marshaler", colour(2), row("blue")},
		{"text marshaler", time.Date(2024, 6, 22, 8, 0, 0, 0, time.UTC), row("2024-06-22T08:00:00Z")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Marshal(%v) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}

func TestMarshal_Aggregates(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  []byte
	}{
		{
			name:  "struct",
			value: reading{Sensor: "t1", Value: 21.5, Note: nil, Count: 3},
			want:  row("t1", "21.5", null, "3"),
		},
		{
			name:  "struct with optional present",
			value: reading{Sensor: "t2", Value: -0.25, Note: strPtr(""), Count: 0},
			want:  row("t2", "-0.25", "", "0"),
		},
		{
			name:  "slice of strings",
			value: []string{"a", "abc", "x"},
			want:  row("a", "abc", "x"),
		},
		{
			name:  "empty slice",
			value: []string{},
			want:  row(),
		},
		{
			name:  "slice of optionals",
			value: []*string{strPtr("a"), nil, strPtr("")},
			want:  row("a", null, ""),
		},
		{
			name:  "array",
			value: [3]int{1, 2, 3},
			want:  row("1", "2", "3"),
		},
		{
			name:  "nested structs flatten",
			value: []point{{1, 2}, {3, 4}},
			want:  row("1", "2", "3", "4"),
		},
		{
			name:  "skipped and unexported fields",
			value: withSkipped{A: "a", Hidden: "h", b: "b", C: 5},
			want:  row("a", "5"),
		},
		{
			name:  "pointer to struct",
			value: &point{7, 8},
			want:  row("7", "8"),
		},
		{
			name:  "interface elements",
			value: []any{"s", 1, true, nil},
			want:  row("s", "1", "true", null),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Marshal(tc.value)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Marshal = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMarshal_Unsupported(t *testing.T) {
	testCases := []struct {
		name  string
		value any
	}{
		{"map", map[string]string{"a": "b"}},
		{"map in struct", struct{ M map[string]int }{M: map[string]int{}}},
		{"unit", struct{}{}},
		{"no exported fields", struct{ a int }{a: 1}},
		{"no exported fields nested", []struct{ a int }{{a: 1}}},
		{"big int", big.NewInt(1)},
		{"big int value", *big.NewInt(1)},
		{"enum variant", shape{}},
		{"complex", complex(1, 2)},
		{"channel", make(chan int)},
		{"func", func() {}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Marshal(tc.value)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsEncode(err) {
				t.Errorf("expected encode error, got %v", err)
			}
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

func TestMarshal_PointerReceiverMembers(t *testing.T) {
	in := release{
		Name:    "rsv",
		Version: version{1, 2},
		Deps:    []version{{0, 9}, {3, 0}},
		Pinned:  &version{2, 5},
	}
	want := row("rsv", "1.2", "2.5", "0.9", "3.0")

	t.Run("by value", func(t *testing.T) {
		got, err := Marshal(in)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Marshal = %q, want %q", got, want)
		}
	})

	t.Run("by pointer", func(t *testing.T) {
		got, err := Marshal(&in)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Marshal = %q, want %q", got, want)
		}
	})

	t.Run("slice elements", func(t *testing.T) {
		got, err := Marshal([]version{{4, 1}, {4, 2}})
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if want := row("4.1", "4.2"); !bytes.Equal(got, want) {
			t.Errorf("Marshal = %q, want %q", got, want)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		raw, err := Marshal(&in)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var out release
		if err := Unmarshal(raw, &out); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(out, in) {
			t.Errorf("got %+v, want %+v", out, in)
		}
	})
}

func TestMarshal_SentinelInString(t *testing.T) {
	_, err := Marshal([]string{"fine", "bad\xff"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrSentinelInField) {
		t.Errorf("expected ErrSentinelInField, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Field != 1 {
		t.Errorf("expected error at field 1, got %v", err)
	}
}

func TestMarshal_InvalidChar(t *testing.T) {
	_, err := Marshal(Char(0xD800))
	if !IsEncode(err) {
		t.Errorf("expected encode error for surrogate, got %v", err)
	}
}

func TestRowEncoder_Fields(t *testing.T) {
	var b RowBuilder
	enc := NewRowEncoder(&b)
	if err := EncodeValue(enc, reading{Sensor: "s", Value: 1}); err != nil {
		t.Fatalf("EncodeValue failed: %v", err)
	}
	if enc.Fields() != 4 {
		t.Errorf("expected 4 fields, got %d", enc.Fields())
	}
	b.EndRow()
	if b.Len() != len(b.Bytes()) {
		t.Errorf("Len and Bytes disagree")
	}
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Reset left %d bytes", b.Len())
	}
}
