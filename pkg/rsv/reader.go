package rsv

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/ssargent/rsv/pkg/codec"
)

// Reader reads rows from a byte source, forward only. A Reader is not safe
// for concurrent use.
type Reader struct {
	r       *bufio.Reader
	file    *os.File // non-nil when the reader owns the file
	opts    codec.DecodeOptions
	scratch []byte
	offset  int64
	rows    int64
}

// NewReader returns a buffered reader over r.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultBufferSize)
}

// NewReaderSize returns a reader over r with a buffer of at least size bytes.
func NewReaderSize(r io.Reader, size int) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, bufferSize(size))}
}

// Open opens the named file for reading.
func Open(path string) (*Reader, error) {
	return NewFileReader(ReaderConfig{FilePath: path})
}

// NewFileReader opens the file described by config.
func NewFileReader(config ReaderConfig) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, codec.IOError(err)
	}

	// Seek to start offset if specified
	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, codec.IOError(err)
		}
	}

	r := NewReaderSize(file, config.BufferSize)
	r.file = file
	r.offset = config.StartOffset
	r.opts = config.Decode
	return r, nil
}

// SetDecodeOptions sets the options used by Decode and the iterators.
func (r *Reader) SetDecodeOptions(opts codec.DecodeOptions) {
	r.opts = opts
}

// ReadRaw appends the bytes of the next row, terminator included, to buf.
//
// It returns io.EOF, with buf unchanged, when the source holds no more
// bytes. A trailing row without a terminator is returned as is, with a nil
// error; decoding it reports the missing terminator. Source failures are
// returned as codec IO errors, with buf unchanged.
func (r *Reader) ReadRaw(buf []byte) ([]byte, error) {
	start := len(buf)
	for {
		chunk, err := r.r.ReadSlice(codec.RowTermByte)
		buf = append(buf, chunk...)

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF:
			if len(buf) == start {
				return buf, io.EOF
			}
		default:
			r.offset += int64(len(buf) - start)
			return buf[:start], codec.IOError(err)
		}

		r.offset += int64(len(buf) - start)
		r.rows++
		return buf, nil
	}
}

// ReadRecord reads the next row and splits it into fields. It returns io.EOF
// at the end of the source.
func (r *Reader) ReadRecord() ([]codec.Field, error) {
	var err error
	r.scratch, err = r.ReadRaw(r.scratch[:0])
	if err != nil {
		return nil, err
	}
	return codec.SplitRow(r.scratch)
}

// Decode reads the next row into v. It returns io.EOF at the end of the
// source. A row that fails to decode is consumed; the next call reads the
// row after it.
func (r *Reader) Decode(v any) error {
	var err error
	r.scratch, err = r.ReadRaw(r.scratch[:0])
	if err != nil {
		return err
	}
	return codec.UnmarshalOptions(r.scratch, v, r.opts)
}

// Offset returns the number of bytes consumed from the source, plus the
// configured start offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Rows returns the number of rows read.
func (r *Reader) Rows() int64 {
	return r.rows
}

// BufferSize returns the size of the read buffer.
func (r *Reader) BufferSize() int {
	return r.r.Size()
}

// Close closes the file the reader owns, if any.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return codec.IOError(err)
}
