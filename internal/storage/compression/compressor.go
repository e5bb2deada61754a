package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Compressor defines the interface for compression algorithms.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// ID is the byte written in front of framed payloads.
	ID() byte

	// Compress returns the compressed form of data, or ok=false when the
	// data does not shrink and should be stored raw.
	Compress(data []byte) (out []byte, ok bool, err error)

	// Decompress restores size bytes from data.
	Decompress(data []byte, size int) ([]byte, error)
}

// Factory is a function that creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
	byID        = make(map[byte]Factory)
)

// ErrCorruptFrame is returned when a framed value cannot be decoded.
var ErrCorruptFrame = errors.New("corrupt compressed frame")

// Register registers a compressor factory with the given name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
	byID[factory().ID()] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}

	return factory(), nil
}

// Available returns the sorted list of available compressor names.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAvailable checks if a compressor with the given name is available.
func IsAvailable(name string) bool {
	mu.RLock()
	_, ok := compressors[name]
	mu.RUnlock()
	return ok
}

// Frame compresses data with c and prefixes the algorithm id and the
// uncompressed length, so Unframe needs no out-of-band information.
func Frame(c Compressor, data []byte) ([]byte, error) {
	out, ok, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	id := c.ID()
	if !ok {
		id, out = noneID, data
	}

	frame := make([]byte, 1, 1+binary.MaxVarintLen64+len(out))
	frame[0] = id
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	return append(frame, out...), nil
}

// Unframe reverses Frame using whichever compressor produced the frame.
func Unframe(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, ErrCorruptFrame
	}
	mu.RLock()
	factory, ok := byID[frame[0]]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown compressor id %d", ErrCorruptFrame, frame[0])
	}

	size, n := binary.Uvarint(frame[1:])
	if n <= 0 || size > maxFrameSize {
		return nil, fmt.Errorf("%w: bad length", ErrCorruptFrame)
	}
	return factory().Decompress(frame[1+n:], int(size))
}

// maxFrameSize bounds allocations on decode; a full snapshot is a few KiB.
const maxFrameSize = 1 << 24

// init registers the built-in compressors.
func init() {
	Register("none", func() Compressor { return &NoCompressor{} })
	Register("lz4", func() Compressor { return &LZ4Compressor{} })
}
