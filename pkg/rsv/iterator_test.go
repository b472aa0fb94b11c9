package rsv

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rsv/pkg/codec"
)

func collect[T any](t *testing.T, src []byte) ([]T, []error) {
	t.Helper()
	var (
		values []T
		errs   []error
	)
	for v, err := range Records[T](NewReader(bytes.NewReader(src))) {
		values = append(values, v)
		errs = append(errs, err)
	}
	return values, errs
}

func TestIterator_EmptySource(t *testing.T) {
	rows, errs := collect[[]string](t, nil)
	assert.Empty(t, rows)
	assert.Empty(t, errs)

	structs, errs := collect[example](t, []byte{})
	assert.Empty(t, structs)
	assert.Empty(t, errs)
}

func TestIterator_BareRowTerminators(t *testing.T) {
	for _, k := range []int{1, 2, 5} {
		src := bytes.Repeat([]byte{codec.RowTermByte}, k)
		rows, errs := collect[[]string](t, src)

		require.Len(t, rows, k)
		for i := range rows {
			assert.NoError(t, errs[i])
			assert.Empty(t, rows[i])
		}
	}
}

type scalars struct {
	B   bool
	I8  int8
	I16 int16
	I32 int32
	I64 int64
	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64
	F32 float32
	F64 float64
	S   string
	O   *string
	C   codec.Char
}

func TestIterator_ScalarRoundTrip(t *testing.T) {
	present := "present"
	in := []scalars{
		{},
		{
			B: true, I8: math.MinInt8, I16: math.MinInt16, I32: math.MinInt32, I64: math.MinInt64,
			U8: math.MaxUint8, U16: math.MaxUint16, U32: math.MaxUint32, U64: math.MaxUint64,
			F32: math.MaxFloat32, F64: math.SmallestNonzeroFloat64, S: "Hello Stenway!", O: &present, C: 'é',
		},
		{
			I8: math.MaxInt8, I16: math.MaxInt16, I32: math.MaxInt32, I64: math.MaxInt64,
			F32: -0.1, F64: 3.14, S: "🎯", C: 'x',
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, v := range in {
		require.NoError(t, w.Encode(v))
	}
	require.NoError(t, w.Flush())

	out, errs := collect[scalars](t, buf.Bytes())
	require.Len(t, out, len(in))
	for i := range in {
		require.NoError(t, errs[i])
		assert.Equal(t, in[i], out[i])
	}
}

func TestIterator_NullDistinctFromEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	empty := ""
	require.NoError(t, w.Encode([]*string{nil, &empty}))
	require.NoError(t, w.Flush())

	out, errs := collect[[]*string](t, buf.Bytes())
	require.Len(t, out, 1)
	require.NoError(t, errs[0])
	require.Len(t, out[0], 2)
	assert.Nil(t, out[0][0])
	require.NotNil(t, out[0][1])
	assert.Equal(t, "", *out[0][1])
}

func TestIterator_MultiRowStream(t *testing.T) {
	src := []byte("a\xffbc\xff\xfd" + "\xfd" + "d\xff\xffe\xff\xfd")

	out, errs := collect[[]string](t, src)
	require.Len(t, out, 3)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "bc"}, out[0])
	assert.Len(t, out[1], 0)
	assert.Equal(t, []string{"d", "", "e"}, out[2])
}

func TestIterator_MalformedRowDoesNotStopIteration(t *testing.T) {
	src := []byte("ok\xff\xfd" + "a\xffb\xfd" + "after\xff\xfd")

	it := Deserialize[[]string](NewReader(bytes.NewReader(src)))

	require.True(t, it.Next())
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"ok"}, it.Value())

	require.True(t, it.Next())
	err := it.Err()
	require.Error(t, err)
	assert.True(t, codec.IsDecode(err))
	assert.ErrorIs(t, err, codec.ErrMissingValueTerm)
	assert.Nil(t, it.Value())
	assert.Equal(t, int64(2), it.Row())

	require.True(t, it.Next())
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"after"}, it.Value())

	assert.False(t, it.Next())
	assert.False(t, it.Next())
}

func TestIterator_TruncatedFinalRow(t *testing.T) {
	out, errs := collect[[]string](t, []byte("a\xff\xfdb\xff"))
	require.Len(t, out, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], codec.ErrMissingRowTerm)
}

func TestIterator_SourceFailureEndsIteration(t *testing.T) {
	src := io.MultiReader(strings.NewReader("a\xff\xfd"), iotest.ErrReader(io.ErrUnexpectedEOF))
	it := Deserialize[[]string](NewReader(src))

	require.True(t, it.Next())
	require.NoError(t, it.Err())

	require.True(t, it.Next())
	assert.True(t, codec.IsIO(it.Err()))

	assert.False(t, it.Next())
}

func TestRecords_StopEarly(t *testing.T) {
	r := NewReader(strings.NewReader("a\xff\xfdb\xff\xfdc\xff\xfd"))

	var seen []string
	for rec, err := range Records[[]string](r) {
		require.NoError(t, err)
		seen = append(seen, rec...)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)

	// The reader keeps its position
	rest, err := ReadAll[[]string](r)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c"}}, rest)
}

func TestReadAll_StopsAtFirstError(t *testing.T) {
	r := NewReader(strings.NewReader("1\xff\xfdx\xff\xfd3\xff\xfd"))
	out, err := ReadAll[[]int](r)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrParse)
	assert.Equal(t, [][]int{{1}}, out)
}
