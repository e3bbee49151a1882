package gudaprim

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Context represents an execution context for device operations.
// It manages device resources, memory allocation, and stream execution.
// A Context must be created before any device operations and should be
// destroyed when no longer needed.
type Context struct {
	device   *Device
	cfg      Config
	log      *slog.Logger
	memory   *MemoryPool
	streamID atomic.Int32

	mu        sync.Mutex
	streams   map[int]*Stream
	destroyed bool
}

// Dim3 represents 3D dimensions for grid and block configurations.
// This matches CUDA's dim3 structure for kernel launch parameters.
type Dim3 struct {
	X, Y, Z int
}

// ThreadID identifies a thread's position within the execution hierarchy.
// It provides the same indexing semantics as CUDA's built-in variables:
// blockIdx, threadIdx, blockDim, and gridDim.
type ThreadID struct {
	BlockIdx  Dim3 // Block index within the grid
	ThreadIdx Dim3 // Thread index within the block
	BlockDim  Dim3 // Dimensions of the block
	GridDim   Dim3 // Dimensions of the grid
}

// Kernel represents a compute kernel that can be executed in parallel.
// Implementations must be safe for concurrent use: Execute is called
// from several goroutines at once, and threads of one launch must only
// write indices no other thread of the same launch reads.
type Kernel interface {
	Execute(tid ThreadID)
}

// KernelFunc is a function that can be launched as a kernel.
type KernelFunc func(tid ThreadID)

// NewContext creates a context on the detected CPU device. Zero fields of
// cfg are filled from the device (see DefaultConfig).
func NewContext(cfg Config) (*Context, error) {
	dev := detectedDevice()
	cfg = cfg.withDefaults(dev)

	ctx := &Context{
		device:  dev,
		cfg:     cfg,
		log:     cfg.Logger,
		memory:  NewMemoryPool(cfg.MemoryLimit),
		streams: make(map[int]*Stream),
	}
	ctx.log.Debug("context created",
		"device", dev.Name,
		"workers", cfg.Workers,
		"block", cfg.BlockSize,
		"memLimit", cfg.MemoryLimit)
	return ctx, nil
}

// Device returns the device this context runs on.
func (ctx *Context) Device() *Device {
	return ctx.device
}

// Config returns the effective configuration, defaults applied.
func (ctx *Context) Config() Config {
	return ctx.cfg
}

// CreateStream creates a new execution stream
func (ctx *Context) CreateStream() (*Stream, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.destroyed {
		return nil, ErrContextDestroyed
	}

	id := int(ctx.streamID.Add(1))
	stream := newStream(ctx, id, ctx.cfg.StreamDepth)
	ctx.streams[id] = stream
	return stream, nil
}

// DestroyStream waits for the stream's pending work and stops its worker.
func (ctx *Context) DestroyStream(s *Stream) error {
	ctx.mu.Lock()
	delete(ctx.streams, s.id)
	ctx.mu.Unlock()
	return s.close()
}

// Synchronize waits for all streams to complete and returns the first
// execution error any of them reported.
func (ctx *Context) Synchronize() error {
	var firstErr error
	for _, s := range ctx.liveStreams() {
		if err := s.Synchronize(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Destroy drains and closes every stream. Device memory still allocated is
// reported as an error but released regardless.
func (ctx *Context) Destroy() error {
	ctx.mu.Lock()
	if ctx.destroyed {
		ctx.mu.Unlock()
		return ErrContextDestroyed
	}
	ctx.destroyed = true
	streams := make([]*Stream, 0, len(ctx.streams))
	for id, s := range ctx.streams {
		streams = append(streams, s)
		delete(ctx.streams, id)
	}
	ctx.mu.Unlock()

	var firstErr error
	for _, s := range streams {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if live := ctx.memory.release(); live > 0 && firstErr == nil {
		firstErr = NewMemoryError("Destroy", fmt.Sprintf("%d allocations still live", live), nil)
	}
	ctx.log.Debug("context destroyed")
	return firstErr
}

func (ctx *Context) liveStreams() []*Stream {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	out := make([]*Stream, 0, len(ctx.streams))
	for _, s := range ctx.streams {
		out = append(out, s)
	}
	return out
}

// GridFor returns a one-dimensional launch configuration covering n threads
// with the context's block size.
func (ctx *Context) GridFor(n int) (grid, block Dim3) {
	bs := ctx.cfg.BlockSize
	if n < bs {
		bs = max(n, 1)
	}
	return Dim1((n + bs - 1) / bs), Dim1(bs)
}

// Dim1 returns a one-dimensional Dim3.
func Dim1(x int) Dim3 {
	return Dim3{X: x, Y: 1, Z: 1}
}

// Helper functions

// Global returns the global thread index
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// GlobalY returns the global Y index
func (tid ThreadID) GlobalY() int {
	return tid.BlockIdx.Y*tid.BlockDim.Y + tid.ThreadIdx.Y
}

// GlobalZ returns the global Z index
func (tid ThreadID) GlobalZ() int {
	return tid.BlockIdx.Z*tid.BlockDim.Z + tid.ThreadIdx.Z
}

// Size returns the total number of elements
func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

func (d Dim3) valid() bool {
	return d.X >= 0 && d.Y >= 0 && d.Z >= 0
}

// Execute implements Kernel for KernelFunc
func (fn KernelFunc) Execute(tid ThreadID) {
	fn(tid)
}
