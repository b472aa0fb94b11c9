package rsv

import "github.com/ssargent/rsv/pkg/codec"

// DefaultBufferSize is the buffer size used when a config leaves it unset.
const DefaultBufferSize = 4096

// WriterConfig holds configuration for a file-backed writer
type WriterConfig struct {
	FilePath   string // Path to the output file
	BufferSize int    // Write buffer size (0 = DefaultBufferSize, <0 = unbuffered)
	Append     bool   // Append to an existing file instead of truncating it
}

// ReaderConfig holds configuration for a file-backed reader
type ReaderConfig struct {
	FilePath    string              // Path to the input file
	BufferSize  int                 // Read buffer size (0 = DefaultBufferSize)
	StartOffset int64               // Offset to start reading from; must sit on a row boundary
	Decode      codec.DecodeOptions // Options applied by Decode and the iterators
}

func bufferSize(n int) int {
	if n <= 0 {
		return DefaultBufferSize
	}
	return n
}
