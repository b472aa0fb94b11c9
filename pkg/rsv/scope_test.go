package rsv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rsv/pkg/codec"
)

func TestWithWriter_FlushesOnSuccess(t *testing.T) {
	var out bytes.Buffer
	err := WithWriter(&out, func(w *Writer) error {
		return w.WriteStrings([]string{"a"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a\xff\xfd", out.String())
}

func TestWithWriter_FlushesOnError(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("boom")

	err := WithWriter(&out, func(w *Writer) error {
		if err := w.WriteStrings([]string{"a"}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, "a\xff\xfd", out.String())
}

func TestWithWriter_FlushesOnPanic(t *testing.T) {
	var out bytes.Buffer
	assert.Panics(t, func() {
		_ = WithWriter(&out, func(w *Writer) error {
			_ = w.WriteStrings([]string{"a"})
			panic("boom")
		})
	})
	assert.Equal(t, "a\xff\xfd", out.String())
}

func TestWithWriter_FlushErrors(t *testing.T) {
	// Flush failure surfaces when fn succeeds
	err := WithWriter(failingWriter{}, func(w *Writer) error {
		return w.WriteStrings([]string{"a"})
	})
	require.Error(t, err)
	assert.True(t, codec.IsIO(err))

	// and is dropped when fn fails
	boom := errors.New("boom")
	err = WithWriter(failingWriter{}, func(w *Writer) error {
		_ = w.WriteStrings([]string{"a"})
		return boom
	})
	assert.Equal(t, boom, err)
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.rsv")
	err := WithFile(path, func(w *Writer) error {
		return w.Encode(example{Num: 1, String: "one"})
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\xffone\xff\xfe\xff\xfd", string(data))
}
