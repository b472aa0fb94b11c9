package cmd

import (
	"io"

	"github.com/ssargent/rsv/pkg/codec"
	"github.com/ssargent/rsv/pkg/compress"
	"github.com/ssargent/rsv/pkg/rsv"
)

// stdio is the path meaning standard input or standard output.
const stdio = "-"

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openInput opens an RSV source with a read buffer of size bytes. Files pick
// their compression from the extension unless algo says otherwise; stdin uses
// algo as given.
func openInput(path string, algo compress.Algorithm, size int, in io.Reader, opts codec.DecodeOptions) (*rsv.Reader, io.Closer, error) {
	if path == "" || path == stdio {
		dec, err := compress.NewReader(in, algo)
		if err != nil {
			return nil, nil, err
		}
		r := rsv.NewReaderSize(dec, size)
		r.SetDecodeOptions(opts)
		return r, dec, nil
	}

	f, err := compress.OpenSize(path, algo, size)
	if err != nil {
		return nil, nil, err
	}
	f.SetDecodeOptions(opts)
	return f.Reader, f, nil
}

// openOutput opens an RSV sink. Uncompressed sinks get a write buffer of size
// bytes. Closing the returned closer flushes the writer and finishes the
// compressed stream.
func openOutput(path string, algo compress.Algorithm, size int, out io.Writer) (*rsv.Writer, io.Closer, error) {
	if path == "" || path == stdio {
		enc, err := compress.NewWriter(out, algo)
		if err != nil {
			return nil, nil, err
		}
		w := rsv.NewWriterSize(enc, size)
		if algo != compress.None && algo != "" {
			w = rsv.NewUnbufferedWriter(enc)
		}
		return w, closerFunc(func() error {
			err := w.Close()
			if encErr := enc.Close(); err == nil {
				err = codec.IOError(encErr)
			}
			return err
		}), nil
	}

	f, err := compress.CreateSize(path, algo, size)
	if err != nil {
		return nil, nil, err
	}
	return f.Writer, f, nil
}

// algorithmFor resolves the compression for path. The --compression flag
// wins; otherwise files go by their extension and stdio uses the configured
// default.
func algorithmFor(path, flag, configured string) (compress.Algorithm, error) {
	switch {
	case flag != "":
		return compress.ParseAlgorithm(flag)
	case path == "" || path == stdio:
		return compress.ParseAlgorithm(configured)
	default:
		return compress.None, nil
	}
}
