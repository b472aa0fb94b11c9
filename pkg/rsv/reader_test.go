package rsv

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rsv/pkg/codec"
)

func TestReader_ReadRaw(t *testing.T) {
	r := NewReader(strings.NewReader("a\xff\xfd\xfdb\xff"))

	buf, err := r.ReadRaw(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\xff\xfd"), buf)

	buf, err = r.ReadRaw(buf[:0])
	require.NoError(t, err)
	assert.Equal(t, []byte("\xfd"), buf)

	// Trailing row without a terminator is returned as is
	buf, err = r.ReadRaw(buf[:0])
	require.NoError(t, err)
	assert.Equal(t, []byte("b\xff"), buf)

	buf, err = r.ReadRaw([]byte("keep"))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []byte("keep"), buf)

	assert.Equal(t, int64(3), r.Rows())
	assert.Equal(t, int64(6), r.Offset())
}

func TestReader_ReadRawLongRow(t *testing.T) {
	long := strings.Repeat("x", 1000)
	r := NewReaderSize(strings.NewReader(long+"\xff\xfd"), 16)

	buf, err := r.ReadRaw(nil)
	require.NoError(t, err)
	assert.Equal(t, long+"\xff\xfd", string(buf))
}

func TestReader_SourceFailure(t *testing.T) {
	r := NewReader(iotest.ErrReader(io.ErrClosedPipe))

	buf, err := r.ReadRaw([]byte("keep"))
	require.Error(t, err)
	assert.True(t, codec.IsIO(err))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, []byte("keep"), buf)
}

func TestReader_ReadRecord(t *testing.T) {
	r := NewReader(strings.NewReader("a\xff\xfe\xff\xff\xfd"))

	fields, err := r.ReadRecord()
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].String())
	assert.True(t, fields[1].IsNull())
	assert.False(t, fields[2].IsNull())
	assert.Equal(t, "", fields[2].String())

	_, err = r.ReadRecord()
	assert.Equal(t, io.EOF, err)
}

func TestReader_Decode(t *testing.T) {
	r := NewReader(strings.NewReader("7\xffseven\xff\xfe\xff\xfd"))

	var e example
	require.NoError(t, r.Decode(&e))
	assert.Equal(t, example{Num: 7, String: "seven"}, e)

	assert.Equal(t, io.EOF, r.Decode(&e))
}

func TestReader_StrictOptions(t *testing.T) {
	r := NewReader(strings.NewReader("1\xffa\xff\xfe\xffextra\xff\xfd"))
	r.SetDecodeOptions(codec.DecodeOptions{Strict: true})

	var e example
	err := r.Decode(&e)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrTrailingFields)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.rsv")
	require.NoError(t, os.WriteFile(path, []byte("a\xff\xfdb\xff\xfd"), 0600))

	r, err := Open(path)
	require.NoError(t, err)
	rows, err := ReadAll[[]string](r)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, rows)
	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.rsv"))
	require.Error(t, err)
	assert.True(t, codec.IsIO(err))
}

func TestNewFileReader_StartOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.rsv")
	require.NoError(t, os.WriteFile(path, []byte("a\xff\xfdb\xff\xfd"), 0600))

	r, err := NewFileReader(ReaderConfig{FilePath: path, StartOffset: 3})
	require.NoError(t, err)
	defer r.Close()

	fields, err := r.ReadRecord()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "b", fields[0].String())
	assert.Equal(t, int64(6), r.Offset())
}

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	pi := 3.14
	in := []example{
		{Num: 30202, String: "Hello Stenway!"},
		{Num: -30202, String: "Hello Stenway!", Option: &pi},
		{Num: 0, String: ""},
	}
	for _, e := range in {
		require.NoError(t, w.Encode(e))
	}
	require.NoError(t, w.Flush())

	out, err := ReadAll[example](NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
