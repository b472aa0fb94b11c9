package rsv

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/ssargent/rsv/pkg/codec"
)

// Writer appends rows to a byte sink. A Writer is not safe for concurrent use.
//
// Each row is assembled in memory and handed to the sink in a single write, so
// a row that fails to encode leaves the sink untouched. A failing sink may
// still leave a partial row behind; nothing is rolled back.
type Writer struct {
	out     io.Writer
	buf     *bufio.Writer // nil when unbuffered
	file    *os.File      // non-nil when the writer owns the file
	row     codec.RowBuilder
	scratch []byte
	rows    int64
	size    int64
	path    string
}

// NewWriter returns a buffered writer over w.
func NewWriter(w io.Writer) *Writer {
	return NewWriterSize(w, DefaultBufferSize)
}

// NewWriterSize returns a writer over w with a buffer of at least size bytes.
func NewWriterSize(w io.Writer, size int) *Writer {
	b := bufio.NewWriterSize(w, bufferSize(size))
	return &Writer{out: b, buf: b}
}

// NewUnbufferedWriter returns a writer that hands every row straight to w.
// Use it for sinks that buffer internally, such as compressors.
func NewUnbufferedWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Create creates or truncates the named file and returns a buffered writer
// that owns it. Parent directories are created as needed.
func Create(path string) (*Writer, error) {
	return NewFileWriter(WriterConfig{FilePath: path})
}

// NewFileWriter opens the file described by config.
func NewFileWriter(config WriterConfig) (*Writer, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, codec.IOError(err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if config.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(config.FilePath, flags, 0600)
	if err != nil {
		return nil, codec.IOError(err)
	}

	// Get current file size for offset tracking
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, codec.IOError(err)
	}

	var w *Writer
	if config.BufferSize < 0 {
		w = NewUnbufferedWriter(file)
	} else {
		w = NewWriterSize(file, config.BufferSize)
	}
	w.file = file
	w.size = stat.Size()
	w.path = config.FilePath
	return w, nil
}

// WriteRecord writes one row holding fields.
func (w *Writer) WriteRecord(fields []codec.Field) error {
	var err error
	w.scratch, err = codec.AppendRow(w.scratch[:0], fields)
	if err != nil {
		return err
	}
	return w.emit(w.scratch)
}

// WriteStrings writes one row of non-null string fields.
func (w *Writer) WriteStrings(values []string) error {
	return w.WriteRecord(codec.Strings(values...))
}

// Encode writes v as one row.
func (w *Writer) Encode(v any) error {
	w.row.Reset()
	if err := codec.EncodeValue(codec.NewRowEncoder(&w.row), v); err != nil {
		return err
	}
	w.row.EndRow()
	return w.emit(w.row.Bytes())
}

func (w *Writer) emit(data []byte) error {
	n, err := w.out.Write(data)
	w.size += int64(n)
	if err != nil {
		return codec.IOError(err)
	}
	w.rows++
	return nil
}

// Flush writes buffered rows to the sink.
func (w *Writer) Flush() error {
	if w.buf == nil {
		return nil
	}
	return codec.IOError(w.buf.Flush())
}

// Sync flushes and, for file-backed writers, fsyncs the file.
func (w *Writer) Sync() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.file == nil {
		return nil
	}
	return codec.IOError(w.file.Sync())
}

// Close flushes the writer and closes the file it owns, if any. Sinks passed
// to NewWriter are left open.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.file != nil {
		if closeErr := w.file.Close(); err == nil {
			err = codec.IOError(closeErr)
		}
		w.file = nil
	}
	return err
}

// Rows returns the number of rows written.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Size returns the number of bytes written, including bytes still buffered.
// For appending file writers it starts at the existing file size.
func (w *Writer) Size() int64 {
	return w.size
}

// BufferSize returns the size of the write buffer, or 0 for an unbuffered
// writer.
func (w *Writer) BufferSize() int {
	if w.buf == nil {
		return 0
	}
	return w.buf.Size()
}

// Path returns the file path, or "" when the writer does not own a file.
func (w *Writer) Path() string {
	return w.path
}
