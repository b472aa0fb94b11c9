// Package compress wraps RSV streams in zstd, gzip or snappy framing.
//
// The codec writes to any io.Writer, so compression is a collaborator rather
// than a feature: the compressor buffers internally and the RSV writer over
// it is unbuffered.
package compress

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm names a compression format.
type Algorithm string

const (
	None   Algorithm = "none"
	Zstd   Algorithm = "zstd"
	Gzip   Algorithm = "gzip"
	Snappy Algorithm = "snappy"
)

var extensions = map[Algorithm]string{
	Zstd:   ".zst",
	Gzip:   ".gz",
	Snappy: ".sz",
}

// ParseAlgorithm parses a name as used in configuration files and flags.
// The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case "", None:
		return None, nil
	case Zstd, Gzip, Snappy:
		return a, nil
	case "zst":
		return Zstd, nil
	case "gz":
		return Gzip, nil
	default:
		return "", fmt.Errorf("unknown compression algorithm %q", name)
	}
}

// FromPath picks an algorithm from a file extension. Unknown extensions
// mean None.
func FromPath(path string) Algorithm {
	ext := strings.ToLower(filepath.Ext(path))
	for a, e := range extensions {
		if e == ext {
			return a
		}
	}
	return None
}

// Extension returns the file extension for a, or "" for None.
func (a Algorithm) Extension() string {
	return extensions[a]
}

// NewWriter returns a writer compressing into w. Closing it finishes the
// compressed stream but leaves w open.
func NewWriter(w io.Writer, a Algorithm) (io.WriteCloser, error) {
	switch a {
	case None, "":
		return nopWriteCloser{w}, nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", a)
	}
}

// NewReader returns a reader decompressing r. Closing it releases decoder
// resources but leaves r open.
func NewReader(r io.Reader, a Algorithm) (io.ReadCloser, error) {
	switch a {
	case None, "":
		return io.NopCloser(r), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", a)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
