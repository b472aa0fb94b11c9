package rsv

import "io"

// WithWriter runs fn with a buffered writer over sink and flushes the writer
// on every exit path.
//
// When fn returns an error, the final flush is best effort: its error is
// dropped and fn's error is returned. When fn succeeds, the flush error, if
// any, is returned. sink is not closed.
func WithWriter(sink io.Writer, fn func(*Writer) error) error {
	return withWriter(NewWriter(sink), fn)
}

// WithFile creates the named file, runs fn with a writer over it, then
// flushes and closes the file on every exit path. Final flush and close
// errors follow the WithWriter rules.
func WithFile(path string, fn func(*Writer) error) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	return withWriter(w, fn)
}

func withWriter(w *Writer, fn func(*Writer) error) (err error) {
	defer func() {
		closeErr := w.Close()
		if err == nil {
			err = closeErr
		}
	}()
	return fn(w)
}
