package compression

import (
	"fmt"

	"github.com/pierrec/lz4"
)

const (
	noneID byte = 0
	lz4ID  byte = 1
)

// NoCompressor implements a pass-through compressor that doesn't compress data.
type NoCompressor struct{}

// Name returns the name of the compressor.
func (c *NoCompressor) Name() string {
	return "none"
}

func (c *NoCompressor) ID() byte {
	return noneID
}

// Compress reports the data as incompressible so it is stored raw.
func (c *NoCompressor) Compress(data []byte) ([]byte, bool, error) {
	return nil, false, nil
}

// Decompress returns a copy of data.
func (c *NoCompressor) Decompress(data []byte, size int) ([]byte, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: raw length %d, expected %d", ErrCorruptFrame, len(data), size)
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor implements LZ4 block compression.
type LZ4Compressor struct{}

// Name returns the name of the compressor.
func (c *LZ4Compressor) Name() string {
	return "lz4"
}

func (c *LZ4Compressor) ID() byte {
	return lz4ID
}

// Compress compresses data using LZ4.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("lz4 compression failed: %w", err)
	}
	// zero means the block is incompressible
	if n == 0 || n >= len(data) {
		return nil, false, nil
	}
	return compressed[:n], true, nil
}

// Decompress decompresses LZ4 data into a buffer of the recorded size.
func (c *LZ4Compressor) Decompress(data []byte, size int) ([]byte, error) {
	decompressed := make([]byte, size)
	n, err := lz4.UncompressBlock(data, decompressed)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: lz4 length %d, expected %d", ErrCorruptFrame, n, size)
	}
	return decompressed, nil
}
