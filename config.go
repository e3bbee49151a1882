// Package gudaprim configuration constants
package gudaprim

import (
	"io"
	"log/slog"
	"runtime"
)

// Cache sizes used when the CPU does not report its own (in bytes)
const (
	// L1 data cache size per core
	L1CacheSize = 32 * 1024 // 32KB

	// L2 cache size per core
	L2CacheSize = 256 * 1024 // 256KB
)

// Thread and block dimensions
const (
	// Default block size for kernels
	DefaultBlockSize = 256

	// Smallest block size the runtime will pick on its own
	MinBlockSize = 64

	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024
)

// Memory pool parameters
const (
	// Memory alignment for allocations
	MemoryAlignment = 64

	// Bytes per device element (int32)
	ElementSize = 4
)

// Stream parameters
const (
	// Default number of queued tasks a stream accepts before Submit blocks
	DefaultStreamDepth = 1000
)

// Config controls how a Context schedules work and sizes its memory.
// Zero fields are filled in from the detected device by NewContext.
type Config struct {
	// Workers is the number of goroutines a single launch fans out to.
	Workers int

	// BlockSize is the threads-per-block used by GridFor.
	BlockSize int

	// MemoryLimit caps the bytes live in the device memory pool.
	MemoryLimit uint64

	// StreamDepth is the task queue length of each stream.
	StreamDepth int

	// Logger receives debug records for allocations and launches.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration NewContext uses for a zero Config
// on the detected device.
func DefaultConfig() Config {
	return Config{}.withDefaults(detectedDevice())
}

func (c Config) withDefaults(dev *Device) Config {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BlockSize <= 0 {
		c.BlockSize = dev.PreferredBlockSize()
	}
	if c.BlockSize > MaxThreadsPerBlock {
		c.BlockSize = MaxThreadsPerBlock
	}
	if c.MemoryLimit == 0 {
		c.MemoryLimit = dev.TotalMem
	}
	if c.StreamDepth <= 0 {
		c.StreamDepth = DefaultStreamDepth
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
