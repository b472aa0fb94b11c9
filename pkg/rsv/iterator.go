package rsv

import (
	"io"
	"iter"

	"github.com/ssargent/rsv/pkg/codec"
)

// Iterator decodes rows of type T from a Reader, one per call to Next.
//
// A row that fails to decode is reported through Err and does not end the
// iteration; the next call to Next moves on to the following row. A source
// failure is reported once and ends it.
//
//	it := rsv.Deserialize[Reading](r)
//	for it.Next() {
//	    if err := it.Err(); err != nil {
//	        log.Printf("row %d: %v", it.Row(), err)
//	        continue
//	    }
//	    use(it.Value())
//	}
type Iterator[T any] struct {
	r     *Reader
	buf   []byte
	value T
	err   error
	row   int64
	done  bool
}

// Deserialize returns an iterator decoding rows of r as T. The iterator
// shares r's position and cannot be restarted.
func Deserialize[T any](r *Reader) *Iterator[T] {
	return &Iterator[T]{r: r}
}

// Next advances to the next row. It returns false once the source is
// exhausted or has failed.
func (it *Iterator[T]) Next() bool {
	if it.done {
		return false
	}

	var zero T
	it.value = zero
	it.err = nil

	var err error
	it.buf, err = it.r.ReadRaw(it.buf[:0])
	if err == io.EOF {
		it.done = true
		return false
	}
	it.row++
	if err != nil {
		it.err = err
		it.done = true
		return true
	}

	if it.err = codec.UnmarshalOptions(it.buf, &it.value, it.r.opts); it.err != nil {
		it.value = zero
	}
	return true
}

// Value returns the row decoded by the last call to Next. It is the zero
// value when Err is non-nil.
func (it *Iterator[T]) Value() T {
	return it.value
}

// Err returns the error for the current row, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Row returns the 1-based index of the current row.
func (it *Iterator[T]) Row() int64 {
	return it.row
}

// Records returns a single-use sequence of decoded rows of r.
//
//	for rec, err := range rsv.Records[Reading](r) {
//	    ...
//	}
func Records[T any](r *Reader) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := Deserialize[T](r)
		for it.Next() {
			if !yield(it.Value(), it.Err()) {
				return
			}
		}
	}
}

// ReadAll decodes every remaining row of r. It stops at the first error and
// returns the rows decoded before it.
func ReadAll[T any](r *Reader) ([]T, error) {
	var out []T
	for rec, err := range Records[T](r) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
