package compress

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ssargent/rsv/pkg/codec"
	"github.com/ssargent/rsv/pkg/rsv"
)

// FileWriter is an RSV writer over a compressed file.
type FileWriter struct {
	*rsv.Writer
	enc  io.WriteCloser
	file *os.File
}

// Create creates or truncates path and returns a writer compressing with a.
// When a is None the algorithm is taken from the file extension.
func Create(path string, a Algorithm) (*FileWriter, error) {
	return CreateSize(path, a, rsv.DefaultBufferSize)
}

// CreateSize is Create with an explicit write buffer size for uncompressed
// files. Compressed files are written unbuffered; the compressor buffers.
func CreateSize(path string, a Algorithm, size int) (*FileWriter, error) {
	if a == None || a == "" {
		a = FromPath(path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, codec.IOError(err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, codec.IOError(err)
	}

	enc, err := NewWriter(file, a)
	if err != nil {
		file.Close()
		return nil, err
	}

	var w *rsv.Writer
	if a == None {
		w = rsv.NewWriterSize(enc, size)
	} else {
		w = rsv.NewUnbufferedWriter(enc)
	}
	return &FileWriter{Writer: w, enc: enc, file: file}, nil
}

// Close flushes pending rows, finishes the compressed stream and closes the
// file. The first error wins.
func (w *FileWriter) Close() error {
	err := w.Writer.Close()
	if encErr := w.enc.Close(); err == nil {
		err = codec.IOError(encErr)
	}
	if closeErr := w.file.Close(); err == nil {
		err = codec.IOError(closeErr)
	}
	return err
}

// FileReader is an RSV reader over a compressed file.
type FileReader struct {
	*rsv.Reader
	dec  io.ReadCloser
	file *os.File
}

// Open opens path for reading, decompressing with a. When a is None the
// algorithm is taken from the file extension.
func Open(path string, a Algorithm) (*FileReader, error) {
	return OpenSize(path, a, rsv.DefaultBufferSize)
}

// OpenSize is Open with an explicit read buffer size.
func OpenSize(path string, a Algorithm, size int) (*FileReader, error) {
	if a == None || a == "" {
		a = FromPath(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, codec.IOError(err)
	}

	dec, err := NewReader(file, a)
	if err != nil {
		file.Close()
		return nil, codec.IOError(err)
	}

	return &FileReader{Reader: rsv.NewReaderSize(dec, size), dec: dec, file: file}, nil
}

// Close releases the decompressor and closes the file.
func (r *FileReader) Close() error {
	err := r.dec.Close()
	if closeErr := r.file.Close(); err == nil {
		err = closeErr
	}
	return codec.IOError(err)
}
