package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendRow(t *testing.T) {
	testCases := []struct {
		name   string
		fields []Field
		want   []byte
	}{
		{
			name:   "no fields",
			fields: nil,
			want:   []byte{RowTermByte},
		},
		{
			name:   "single value",
			fields: []Field{String("a")},
			want:   []byte{'a', ValueTermByte, RowTermByte},
		},
		{
			name:   "empty string",
			fields: []Field{String("")},
			want:   []byte{ValueTermByte, RowTermByte},
		},
		{
			name:   "null",
			fields: []Field{Null()},
			want:   []byte{NullByte, ValueTermByte, RowTermByte},
		},
		{
			name:   "mixed",
			fields: []Field{String("ab"), Null(), String(""), Bytes([]byte("x"))},
			want: []byte{
				'a', 'b', ValueTermByte,
				NullByte, ValueTermByte,
				ValueTermByte,
				'x', ValueTermByte,
				RowTermByte,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AppendRow(nil, tc.fields)
			if err != nil {
				t.Fatalf("AppendRow failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("AppendRow = %x, want %x", got, tc.want)
			}
		})
	}
}

func TestAppendRow_RejectsSentinels(t *testing.T) {
	for _, b := range []byte{NullByte, RowTermByte, ValueTermByte} {
		dst := []byte("prefix")
		got, err := AppendRow(dst, []Field{String("ok"), Bytes([]byte{'x', b})})
		if err == nil {
			t.Fatalf("expected error for payload containing %#x", b)
		}
		if !IsEncode(err) {
			t.Errorf("expected encode error, got %v", err)
		}
		if !errors.Is(err, ErrSentinelInField) {
			t.Errorf("expected ErrSentinelInField, got %v", err)
		}
		var ce *Error
		if errors.As(err, &ce) && ce.Field != 1 {
			t.Errorf("expected field index 1, got %d", ce.Field)
		}
		if !bytes.Equal(got, []byte("prefix")) {
			t.Errorf("dst modified on error: %q", got)
		}
	}
}

func TestSplitRow(t *testing.T) {
	raw := []byte{
		'a', ValueTermByte,
		NullByte, ValueTermByte,
		ValueTermByte,
		'x', 'y', 'z', ValueTermByte,
		RowTermByte,
	}

	fields, err := SplitRow(raw)
	if err != nil {
		t.Fatalf("SplitRow failed: %v", err)
	}
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(fields))
	}

	if fields[0].String() != "a" || fields[0].IsNull() {
		t.Errorf("field 0 = %+v", fields[0])
	}
	if !fields[1].IsNull() {
		t.Errorf("field 1 should be null")
	}
	if fields[2].IsNull() || fields[2].String() != "" {
		t.Errorf("field 2 should be the empty string, got %+v", fields[2])
	}
	if fields[3].String() != "xyz" {
		t.Errorf("field 3 = %q", fields[3].String())
	}

	// Fields must not alias the input.
	raw[0] = 'q'
	if fields[0].String() != "a" {
		t.Errorf("field 0 aliases input")
	}
}

func TestSplitRow_Malformed(t *testing.T) {
	testCases := []struct {
		name  string
		raw   []byte
		cause error
	}{
		{"missing value terminator", []byte{'a', 'b', RowTermByte}, ErrMissingValueTerm},
		{"missing row terminator", []byte{'a', ValueTermByte}, ErrMissingRowTerm},
		{"bad null marker", []byte{NullByte, 'a', ValueTermByte, RowTermByte}, ErrBadNullMarker},
		{"truncated null marker", []byte{NullByte}, ErrBadNullMarker},
		{"empty buffer", []byte{}, ErrMissingRowTerm},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SplitRow(tc.raw)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsDecode(err) {
				t.Errorf("expected decode error, got %v", err)
			}
			if !errors.Is(err, tc.cause) {
				t.Errorf("expected %v, got %v", tc.cause, err)
			}
		})
	}
}

func TestSplitRow_RoundTripsAppendRow(t *testing.T) {
	in := []Field{String("one"), Null(), String(""), String("🎯 émoji")}
	raw, err := AppendRow(nil, in)
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	out, err := SplitRow(raw)
	if err != nil {
		t.Fatalf("SplitRow failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d fields, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i].Null != out[i].Null || !bytes.Equal(in[i].Value, out[i].Value) {
			t.Errorf("field %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindDecode, Detail: "bad", Cause: ErrParse, Field: 2}
	want := "rsv: [decode] field 2: bad (caused by: scalar parse failure)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, ErrDecode) {
		t.Error("expected errors.Is(err, ErrDecode)")
	}
	if errors.Is(err, ErrEncode) {
		t.Error("decode error must not match ErrEncode")
	}
	if !errors.Is(err, ErrParse) {
		t.Error("expected cause to unwrap to ErrParse")
	}
}

func TestIOError(t *testing.T) {
	if IOError(nil) != nil {
		t.Error("IOError(nil) should be nil")
	}

	base := errors.New("disk on fire")
	err := IOError(base)
	if !IsIO(err) {
		t.Errorf("expected IO error, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected IO error to wrap its cause")
	}
	if IOError(err) != err {
		t.Error("IOError should not double-wrap codec errors")
	}
}

func TestValidateRow(t *testing.T) {
	valid := [][]byte{
		{RowTermByte},
		{'a', ValueTermByte, NullByte, ValueTermByte, ValueTermByte, RowTermByte},
	}
	for _, raw := range valid {
		if err := ValidateRow(raw); err != nil {
			t.Errorf("ValidateRow(%x) = %v", raw, err)
		}
	}

	invalid := []struct {
		raw   []byte
		cause error
	}{
		{[]byte{}, ErrMissingRowTerm},
		{[]byte{'a', ValueTermByte}, ErrMissingRowTerm},
		{[]byte{'a', RowTermByte}, ErrMissingValueTerm},
		{[]byte{0xC3, ValueTermByte, RowTermByte}, ErrInvalidUTF8},
		{[]byte{RowTermByte, RowTermByte}, ErrTrailingFields},
	}
	for _, tc := range invalid {
		err := ValidateRow(tc.raw)
		if !errors.Is(err, tc.cause) {
			t.Errorf("ValidateRow(%x) = %v, want %v", tc.raw, err, tc.cause)
		}
	}
}
